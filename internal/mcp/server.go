// Package mcp exposes the classification-and-approval pipeline over the
// Model Context Protocol.
package mcp

import (
	"context"
	"time"

	"github.com/google/uuid"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"reckoning/internal/action"
	"reckoning/internal/emergence"
	"reckoning/internal/event"
	"reckoning/internal/evolution"
)

type Server struct {
	events     event.Store
	classifier *action.Classifier
	builder    *event.Builder
	queue      *evolution.Queue
	emergence  *emergence.Service
	clock      func() time.Time
	newID      func() string
	mcp        *sdk.Server
}

func NewServer(events event.Store, classifier *action.Classifier, queue *evolution.Queue, emergenceSvc *emergence.Service, version string) *Server {
	s := &Server{
		events:     events,
		classifier: classifier,
		builder:    event.NewBuilder(),
		queue:      queue,
		emergence:  emergenceSvc,
		clock:      time.Now,
		newID:      uuid.NewString,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "reckoning",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
