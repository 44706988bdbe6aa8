// Task HTTP handlers.
//
// This file exposes REST endpoints for the task resource:
//   - GET    /tasks        (list, ETag support)
//   - GET    /tasks/{id}   (fetch one)
//   - POST   /tasks        (create, Idempotency-Key support)
//   - PATCH  /tasks/{id}   (partial update)
//   - DELETE /tasks/{id}   (delete)
//
// Every handler has the HandlerFunc shape: it writes a success response or
// returns an error, never both. Errors are rendered by the error responder
// in the middleware package, so nothing here formats an error body.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-task-backend/internal/apperr"
	"github.com/tbourn/go-task-backend/internal/domain"
	"github.com/tbourn/go-task-backend/internal/http/middleware"
	"github.com/tbourn/go-task-backend/internal/services"
	"github.com/tbourn/go-task-backend/internal/utils"
	"github.com/tbourn/go-task-backend/internal/validation"
)

// Handler names attached to recorded errors for the error log.
const (
	NameListTasks  = "getAllTasks"
	NameGetTask    = "getTaskById"
	NameCreateTask = "createTask"
	NameUpdateTask = "updateTask"
	NameDeleteTask = "deleteTask"
)

// TaskService defines the task operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type TaskService interface {
	// List returns every task ordered by id.
	List(ctx context.Context) ([]domain.Task, error)
	// Get returns one task or services.ErrTaskNotFound.
	Get(ctx context.Context, id uint) (*domain.Task, error)
	// Create inserts a task from validated fields.
	Create(ctx context.Context, f validation.TaskFields) (*domain.Task, error)
	// Update applies the supplied fields and returns the re-fetched task.
	Update(ctx context.Context, id uint, f validation.TaskFields) (*domain.Task, error)
	// Delete removes a task or returns services.ErrTaskNotFound.
	Delete(ctx context.Context, id uint) error
	// ETag returns a weak validator for the current task collection.
	ETag(ctx context.Context) (string, error)
	// Replay returns the task recorded for an idempotency key, if any.
	Replay(ctx context.Context, key string) (*domain.Task, bool)
	// Remember records the task produced for an idempotency key.
	Remember(ctx context.Context, key string, taskID uint, status int) error
}

// Handlers groups the task endpoints.
type Handlers struct {
	tasks TaskService
}

// New constructs and returns a Handlers instance bound to svc.
func New(svc TaskService) *Handlers {
	return &Handlers{tasks: svc}
}

// Register mounts the task routes on g, each one wrapped with its handler
// name. Mutating routes run the schema validation stage first.
func (h *Handlers) Register(g gin.IRoutes) {
	g.GET("/tasks", Wrap(h.ListTasks, NameListTasks))
	g.GET("/tasks/:id", Wrap(h.GetTask, NameGetTask))
	g.POST("/tasks", middleware.Validate(validation.CreateSchema()), Wrap(h.CreateTask, NameCreateTask))
	g.PATCH("/tasks/:id", middleware.Validate(validation.UpdateSchema()), Wrap(h.UpdateTask, NameUpdateTask))
	g.DELETE("/tasks/:id", Wrap(h.DeleteTask, NameDeleteTask))
}

// ListTasks godoc
// @ID          listTasks
// @Summary     List tasks
// @Description Returns every task ordered by id. Sends a weak ETag; a matching If-None-Match yields 304.
// @Tags        tasks
// @Produce     json
// @Param       If-None-Match header string false "ETag from a previous list response"
// @Success     200 {array}  domain.Task
// @Success     304 {string} string "Not Modified"
// @Failure     429 {object} apperr.Body
// @Failure     500 {object} apperr.Body
// @Router      /tasks [get]
func (h *Handlers) ListTasks(c *gin.Context) error {
	ctx := c.Request.Context()

	if etag, err := h.tasks.ETag(ctx); err == nil && etag != "" {
		c.Header("ETag", etag)
		if c.GetHeader("If-None-Match") == etag {
			notModified(c)
			return nil
		}
	}

	tasks, err := h.tasks.List(ctx)
	if err != nil {
		return err
	}
	ok(c, http.StatusOK, tasks)
	return nil
}

// GetTask godoc
// @ID          getTask
// @Summary     Get a task
// @Tags        tasks
// @Produce     json
// @Param       id  path     int true "Task ID"
// @Success     200 {object} domain.Task
// @Failure     404 {object} apperr.Body
// @Failure     500 {object} apperr.Body
// @Router      /tasks/{id} [get]
func (h *Handlers) GetTask(c *gin.Context) error {
	id, valid := utils.ParseID(c.Param("id"))
	if !valid {
		return apperr.NotFound(MsgTaskNotFound)
	}
	t, err := h.tasks.Get(c.Request.Context(), id)
	if err != nil {
		return mapTaskErr(err)
	}
	ok(c, http.StatusOK, t)
	return nil
}

// CreateTask godoc
// @ID          createTask
// @Summary     Create a task
// @Description Creates a task. With an Idempotency-Key header, a retried request replays the first result.
// @Tags        tasks
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key header string false "Client idempotency key"
// @Param       body body object true "title (1-100), description (<=2000), complete, due (future date)"
// @Success     201 {object} domain.Task
// @Failure     400 {object} apperr.Body
// @Failure     422 {object} apperr.Body
// @Failure     429 {object} apperr.Body
// @Failure     500 {object} apperr.Body
// @Router      /tasks [post]
func (h *Handlers) CreateTask(c *gin.Context) error {
	ctx := c.Request.Context()
	key, hasKey := middleware.GetIdempotencyKey(c)

	if hasKey {
		if t, found := h.tasks.Replay(ctx, key); found {
			c.Header(middleware.HeaderIdempotencyReplayed, "true")
			ok(c, http.StatusCreated, t)
			return nil
		}
	}
	if err := middleware.DeferredValidationError(c); err != nil {
		return err
	}

	fields, present := middleware.ValidatedTask(c)
	if !present || fields.Empty() {
		return apperr.BadRequest(MsgTaskDataRequired)
	}

	t, err := h.tasks.Create(ctx, fields)
	if err != nil {
		return mapTaskErr(err)
	}

	if hasKey {
		if err := h.tasks.Remember(ctx, key, t.ID, http.StatusCreated); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Uint("task_id", t.ID).Msg("idempotency record not stored")
		}
	}
	ok(c, http.StatusCreated, t)
	return nil
}

// UpdateTask godoc
// @ID          updateTask
// @Summary     Update a task
// @Description Applies the supplied fields and returns the stored task.
// @Tags        tasks
// @Accept      json
// @Produce     json
// @Param       id   path int    true "Task ID"
// @Param       body body object true "any of title, description, complete, due"
// @Success     200 {object} domain.Task
// @Failure     400 {object} apperr.Body
// @Failure     404 {object} apperr.Body
// @Failure     422 {object} apperr.Body
// @Failure     500 {object} apperr.Body
// @Router      /tasks/{id} [patch]
func (h *Handlers) UpdateTask(c *gin.Context) error {
	id, valid := utils.ParseID(c.Param("id"))
	if !valid {
		return apperr.NotFound(MsgTaskNotFound)
	}
	fields, present := middleware.ValidatedTask(c)
	if !present || fields.Empty() {
		return apperr.BadRequest(MsgTaskDataRequired)
	}
	t, err := h.tasks.Update(c.Request.Context(), id, fields)
	if err != nil {
		return mapTaskErr(err)
	}
	ok(c, http.StatusOK, t)
	return nil
}

// DeleteTask godoc
// @ID          deleteTask
// @Summary     Delete a task
// @Tags        tasks
// @Produce     json
// @Param       id  path     int true "Task ID"
// @Success     200 {object} MessageResponse
// @Failure     404 {object} apperr.Body
// @Failure     500 {object} apperr.Body
// @Router      /tasks/{id} [delete]
func (h *Handlers) DeleteTask(c *gin.Context) error {
	id, valid := utils.ParseID(c.Param("id"))
	if !valid {
		return apperr.NotFound(MsgTaskNotFound)
	}
	if err := h.tasks.Delete(c.Request.Context(), id); err != nil {
		return mapTaskErr(err)
	}
	ok(c, http.StatusOK, MessageResponse{Message: MsgTaskDeleted})
	return nil
}

// mapTaskErr turns service sentinels into typed errors. Anything else is
// returned unchanged and surfaces as a 500.
func mapTaskErr(err error) error {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		return apperr.NotFound(MsgTaskNotFound)
	case errors.Is(err, services.ErrEmptyTask):
		return apperr.BadRequest(MsgTaskDataRequired)
	default:
		return err
	}
}
