package job

import (
	"github.com/codequest-labs/codequest/internal/config"
	"github.com/codequest-labs/codequest/internal/job/queue"
	"github.com/codequest-labs/codequest/internal/job/service"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

func NewQueue(cfg config.Config, client *redis.Client) queue.Queue {
	if client == nil {
		return queue.NewMemoryQueue()
	}
	return queue.NewRedisQueue(client, cfg.JobQueueName)
}

var Module = fx.Module("job",
	fx.Provide(
		NewQueue,
		service.NewService,
	),
)
