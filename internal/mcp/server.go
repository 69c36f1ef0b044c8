package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/dkwan/tasklens/internal/domain"
	"github.com/dkwan/tasklens/internal/matcher"
	"github.com/dkwan/tasklens/internal/service"
)

// Limits are the deployment-level default result cap and confidence
// floor. Zero values fall back to the matcher's own defaults.
type Limits struct {
	MaxResults    int
	MinConfidence int
}

// Server dispatches tasklens.* commands to the task service, the matcher
// and the resolution coordinator. It is the process-level composition of
// the core; the core itself stays a plain library.
type Server struct {
	tasks      *service.TaskService
	matcher    *matcher.TaskMatcher
	resolution *matcher.ResolutionCoordinator
	limits     Limits
	log        *logrus.Logger
}

func NewServer(tasks *service.TaskService, m *matcher.TaskMatcher, rc *matcher.ResolutionCoordinator, limits Limits, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.New()
	}
	return &Server{
		tasks:      tasks,
		matcher:    m,
		resolution: rc,
		limits:     limits,
		log:        log,
	}
}

func (s *Server) HandleCommand(method string, params json.RawMessage) (interface{}, error) {
	s.log.WithField("method", method).Debug("handling command")

	switch method {
	case "tasklens.task.create":
		return s.handleTaskCreate(params)
	case "tasklens.task.list":
		return s.handleTaskList(params)
	case "tasklens.task.get":
		return s.handleTaskGet(params)
	case "tasklens.task.update":
		return s.handleTaskUpdate(params)
	case "tasklens.task.delete":
		return s.handleTaskDelete(params)

	case "tasklens.match.find":
		return s.handleMatchFind(params)
	case "tasklens.match.search":
		return s.handleMatchSearch(params)
	case "tasklens.match.extract":
		return s.handleMatchExtract(params)

	case "tasklens.weights.get":
		return s.matcher.Weights(), nil
	case "tasklens.weights.update":
		return s.handleWeightsUpdate(params)

	case "tasklens.resolution.open":
		return s.handleResolutionOpen(params)
	case "tasklens.resolution.status":
		return s.handleResolutionStatus()
	case "tasklens.resolution.resolve":
		return s.handleResolutionResolve(params)
	case "tasklens.resolution.cancel":
		s.resolution.Cancel()
		return map[string]bool{"cancelled": true}, nil

	default:
		return nil, fmt.Errorf("unknown method: %s", method)
	}
}

// Task handlers

type CreateTaskParams struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    string   `json:"priority,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

func (s *Server) handleTaskCreate(params json.RawMessage) (interface{}, error) {
	var p CreateTaskParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if p.Title == "" {
		return nil, fmt.Errorf("title is required")
	}

	task := domain.NewTask(p.Title, p.Description)
	if p.Priority != "" {
		task.Priority = domain.ParsePriority(p.Priority)
	}
	if len(p.Tags) > 0 {
		task.Tags = p.Tags
	}

	if err := s.tasks.Create(task); err != nil {
		return nil, err
	}
	return task, nil
}

type ListTasksParams struct {
	Status string `json:"status,omitempty"`
	Tag    string `json:"tag,omitempty"`
}

func (s *Server) handleTaskList(params json.RawMessage) (interface{}, error) {
	var p ListTasksParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, fmt.Errorf("invalid parameters: %w", err)
		}
	}

	filter := domain.TaskFilter{}
	if p.Status != "" {
		status := domain.TaskStatus(p.Status)
		filter.Status = &status
	}
	if p.Tag != "" {
		filter.Tag = &p.Tag
	}
	return s.tasks.List(filter)
}

type TaskIDParams struct {
	ID string `json:"id"`
}

func (s *Server) handleTaskGet(params json.RawMessage) (interface{}, error) {
	var p TaskIDParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	return s.tasks.Get(p.ID)
}

type UpdateTaskParams struct {
	ID          string    `json:"id"`
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Status      *string   `json:"status,omitempty"`
	Priority    *string   `json:"priority,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
}

func (s *Server) handleTaskUpdate(params json.RawMessage) (interface{}, error) {
	var p UpdateTaskParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	updates := make(map[string]interface{})
	if p.Title != nil {
		updates["title"] = *p.Title
	}
	if p.Description != nil {
		updates["description"] = *p.Description
	}
	if p.Status != nil {
		updates["status"] = domain.TaskStatus(*p.Status)
	}
	if p.Priority != nil {
		updates["priority"] = domain.ParsePriority(*p.Priority)
	}
	if p.Tags != nil {
		updates["tags"] = *p.Tags
	}
	return s.tasks.Update(p.ID, updates)
}

func (s *Server) handleTaskDelete(params json.RawMessage) (interface{}, error) {
	var p TaskIDParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if err := s.tasks.Delete(p.ID); err != nil {
		return nil, err
	}
	return map[string]bool{"deleted": true}, nil
}

// Match handlers

type MatchParams struct {
	Query   string               `json:"query"`
	Context *domain.MatchContext `json:"context,omitempty"`
}

func (s *Server) handleMatchFind(params json.RawMessage) (interface{}, error) {
	var p MatchParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	return s.matcher.MatchTasks(domain.MatchQuery{
		Raw:           p.Query,
		Context:       p.Context,
		MaxResults:    s.limits.MaxResults,
		MinConfidence: s.limits.MinConfidence,
	})
}

func (s *Server) handleMatchSearch(params json.RawMessage) (interface{}, error) {
	var p MatchParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	return s.matcher.SearchTasks(p.Query, p.Context)
}

type ExtractParams struct {
	Input string `json:"input"`
}

func (s *Server) handleMatchExtract(params json.RawMessage) (interface{}, error) {
	var p ExtractParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	ref, ok := matcher.ExtractTaskReference(p.Input)
	if !ok {
		return map[string]bool{"matched": false}, nil
	}
	return map[string]interface{}{
		"matched":   true,
		"reference": ref,
	}, nil
}

func (s *Server) handleWeightsUpdate(params json.RawMessage) (interface{}, error) {
	var patch domain.WeightsPatch
	if err := json.Unmarshal(params, &patch); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	s.matcher.UpdateWeights(patch)
	return s.matcher.Weights(), nil
}

// Resolution handlers

type ResolutionOpenParams struct {
	Query   string                `json:"query"`
	Matches []*domain.MatchResult `json:"matches"`
	Context *domain.MatchContext  `json:"context,omitempty"`
}

func (s *Server) handleResolutionOpen(params json.RawMessage) (interface{}, error) {
	var p ResolutionOpenParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	req := &domain.ResolutionRequest{
		Query:   p.Query,
		Matches: p.Matches,
		Context: p.Context,
	}
	s.resolution.Open(req, s.completeResolution)
	return map[string]bool{"pending": true}, nil
}

func (s *Server) handleResolutionStatus() (interface{}, error) {
	return map[string]interface{}{
		"pending": s.resolution.Pending(),
		"request": s.resolution.Current(),
	}, nil
}

type ResolutionResolveParams struct {
	TaskID      string `json:"taskId,omitempty"`
	CreateTitle string `json:"createTitle,omitempty"`
	Cancelled   bool   `json:"cancelled,omitempty"`
}

func (s *Server) handleResolutionResolve(params json.RawMessage) (interface{}, error) {
	var p ResolutionResolveParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	resp := domain.ResolutionResponse{
		Cancelled:   p.Cancelled,
		CreateTitle: p.CreateTitle,
	}
	if p.TaskID != "" {
		task, err := s.tasks.Get(p.TaskID)
		if err != nil {
			return nil, err
		}
		resp.Selected = task
	}

	if err := s.resolution.Resolve(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// completeResolution is the continuation handed to the coordinator: it
// acts on the user's decision once the presentation layer reports it.
func (s *Server) completeResolution(resp domain.ResolutionResponse) {
	switch {
	case resp.Cancelled:
		s.log.Debug("resolution cancelled by user")
	case resp.CreateTitle != "":
		task := domain.NewTask(resp.CreateTitle, "")
		if err := s.tasks.Create(task); err != nil {
			s.log.WithError(err).Error("creating task from resolution failed")
			return
		}
		s.log.WithField("taskId", task.ID).Info("created task from resolution")
	case resp.Selected != nil:
		s.log.WithField("taskId", resp.Selected.ID).Debug("resolution selected task")
	}
}
