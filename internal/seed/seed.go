// Package seed bootstraps the badge catalog and, outside production, a
// default admin account.
package seed

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/codequest-labs/codequest/internal/auth/password"
	badgedomain "github.com/codequest-labs/codequest/internal/badge/domain"
	"github.com/codequest-labs/codequest/internal/config"
	userdomain "github.com/codequest-labs/codequest/internal/user/domain"
	"gorm.io/gorm"
)

const (
	defaultAdminUsername = "admin"
	defaultAdminPassword = "admin"
	defaultAdminDisplay  = "Administrator"
)

// EnsureBadgeCatalog creates a catalog row for every configured badge rule
// that does not exist yet. Existing rows are left untouched so manual edits
// survive restarts.
func EnsureBadgeCatalog(db *gorm.DB, rules config.BadgeRulesConfig) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, rule := range rules.Rules {
			var existing badgedomain.Badge
			err := tx.Where("code = ?", rule.Code).First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			badge := badgedomain.Badge{
				ID:          node.Generate(),
				Code:        rule.Code,
				Name:        rule.Name,
				Description: rule.Description,
			}
			if err := tx.Create(&badge).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// EnsureAdminUser creates the default admin account if no admin exists.
// Intended for development and self-hosted bootstrap only.
func EnsureAdminUser(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&userdomain.User{}).Where("is_admin = ?", true).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		hash, err := password.Hash(defaultAdminPassword)
		if err != nil {
			return err
		}

		username := defaultAdminUsername
		admin := userdomain.User{
			ID:           node.Generate(),
			Username:     &username,
			DisplayName:  defaultAdminDisplay,
			PasswordHash: &hash,
			Level:        1,
			IsAdmin:      true,
		}
		return tx.Create(&admin).Error
	})
}
