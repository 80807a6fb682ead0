package server

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/jonathan/idea-prioritizer/internal/pipeline"
	"github.com/jonathan/idea-prioritizer/internal/types"
)

// RootMessage is returned by GET /.
const RootMessage = "Hello, World! Idea prioritizer is running."

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, RootMessage) //nolint:errcheck
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleTopIdeas runs the pipeline and returns the ranked ideas as a JSON array.
func (s *Server) handleTopIdeas(w http.ResponseWriter, r *http.Request) {
	req, err := decodeTopIdeasRequest(r.Body)
	if err != nil {
		s.failure(w, err)
		return
	}

	result, err := s.run(r.Context(), req.Constraints(), nil)
	if err != nil {
		s.logger.Error("pipeline run failed", zap.Error(err))
		s.failure(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, rankedOrEmpty(result.Ranked))
}

// handleTopIdeasStream runs the pipeline and streams progress via SSE
func (s *Server) handleTopIdeasStream(w http.ResponseWriter, r *http.Request) {
	req, err := decodeTopIdeasRequest(r.Body)
	if err != nil {
		s.failure(w, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	result, err := s.run(r.Context(), req.Constraints(), func(event pipeline.ProgressEvent) {
		if err := sse.WriteEvent("step", event); err != nil {
			s.logger.Warn("failed to write SSE event", zap.Error(err))
		}
	})
	if err != nil {
		s.logger.Error("pipeline run failed", zap.Error(err))
		sse.WriteError(err.Error())
		return
	}

	if err := sse.WriteEvent("result", rankedOrEmpty(result.Ranked)); err != nil {
		s.logger.Warn("failed to write SSE result", zap.Error(err))
	}
}

// run waits for any in-flight run to finish, then runs the pipeline.
func (s *Server) run(ctx context.Context, constraints types.Constraints, onProgress pipeline.ProgressCallback) (*pipeline.Result, error) {
	if err := s.runs.Acquire(ctx, 1); err != nil {
		return nil, &ErrBusy{Cause: err}
	}
	defer s.runs.Release(1)

	result, err := s.ranker.RunWithProgress(ctx, constraints, onProgress)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("pipeline returned no result")
	}
	if result.RankingErr != nil {
		s.logger.Warn("returning degraded ranking", zap.String("run_id", result.RunID), zap.Error(result.RankingErr))
	}
	return result, nil
}

func rankedOrEmpty(ranked []types.RankedIdea) []types.RankedIdea {
	if ranked == nil {
		return []types.RankedIdea{}
	}
	return ranked
}
