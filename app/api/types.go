package api

import (
	"time"

	"feedgate/app/cfg"
	"feedgate/app/database"
	"feedgate/app/feed"
	"feedgate/app/tasks"
)

type GeneratorInterface interface {
	Run(meta feed.ChannelMeta, items []database.FeedItem) (string, error)
}

var _ GeneratorInterface = (*feed.Generator)(nil)

type Handler struct {
	feeds     database.FeedRepository
	items     database.ItemRepository
	runs      database.RunRepository
	tokens    database.TokenRepository
	generator GeneratorInterface
	scheduler tasks.TaskSchedulerInterface
	engine    tasks.IngestRunner
	cfg       *cfg.Cfg
	now       func() time.Time
}
