package models

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// Job is a unit of background work handed to the worker pool.
type Job struct {
	ID      string
	Service string
	RunFunc func(ctx context.Context) error
}

type Migration struct {
	Name string
	Func func(ctx context.Context, client *mongo.Client) error
}
