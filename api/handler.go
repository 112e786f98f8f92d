package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/thisisjab/querybridge/engine"
	"github.com/thisisjab/querybridge/entity"
	"github.com/thisisjab/querybridge/storage"
)

type translateRequest struct {
	Query     string            `json:"query"`
	Dialect   string            `json:"dialect"`
	Variables map[string]string `json:"variables"`
}

// translateHandler translates one query.
//
//	POST /api/translate {"query": "level:error", "dialect": "doris"}
func (s *server) translateHandler(w http.ResponseWriter, r *http.Request) {
	var input translateRequest
	if s.returnOnError(w, r, s.readJson(w, r, &input)) {
		return
	}

	resp, err := s.service.Translate(r.Context(), engine.Request{
		RequestID: requestID(r),
		Query:     input.Query,
		Dialect:   input.Dialect,
		Variables: input.Variables,
	})
	if s.returnOnError(w, r, err) {
		return
	}

	s.writeJson( // nolint:errcheck
		w,
		http.StatusOK,
		apiResponse{
			Success: true,
			Data: map[string]any{
				"id":          resp.ID,
				"query":       resp.Query,
				"condition":   resp.Condition,
				"dialect":     resp.Dialect,
				"diagnostics": resp.Diagnostics,
			},
		},
		nil,
	)
}

type translateBatchRequest struct {
	Queries   []string          `json:"queries"`
	Dialect   string            `json:"dialect"`
	Variables map[string]string `json:"variables"`
}

func (s *server) translateBatchHandler(w http.ResponseWriter, r *http.Request) {
	var input translateBatchRequest
	if s.returnOnError(w, r, s.readJson(w, r, &input)) {
		return
	}

	switch {
	case len(input.Queries) == 0:
		s.handleError(w, r, fieldError("queries", "Must contain at least one query."))
		return
	case len(input.Queries) > s.cfg.MaxBatchSize:
		s.handleError(w, r, fieldError("queries", fmt.Sprintf("Must not contain more than %d queries.", s.cfg.MaxBatchSize)))
		return
	}

	reqs := make([]engine.Request, len(input.Queries))
	for i, q := range input.Queries {
		reqs[i] = engine.Request{
			RequestID: requestID(r),
			Query:     q,
			Dialect:   input.Dialect,
			Variables: input.Variables,
		}
	}

	resps, err := s.service.TranslateBatch(r.Context(), reqs)
	if s.returnOnError(w, r, err) {
		return
	}

	var failed int
	for _, resp := range resps {
		if resp.Error != "" {
			failed++
		}
	}

	s.writeJson( // nolint:errcheck
		w,
		http.StatusOK,
		apiResponse{
			Success:  true,
			Data:     map[string]any{"results": resps},
			Metadata: map[string]any{"total": len(resps), "failed": failed},
		},
		nil,
	)
}

type renderRequest struct {
	Template   string             `json:"template"`
	Config     entity.QueryConfig `json:"config"`
	Transforms []entity.Transform `json:"transforms"`
	Dialect    string             `json:"dialect"`
	Variables  map[string]string  `json:"variables"`
}

func (s *server) renderHandler(w http.ResponseWriter, r *http.Request) {
	var input renderRequest
	if s.returnOnError(w, r, s.readJson(w, r, &input)) {
		return
	}

	resp, err := s.service.Render(r.Context(), engine.RenderRequest{
		RequestID:  requestID(r),
		Template:   input.Template,
		Query:      input.Config,
		Transforms: input.Transforms,
		Dialect:    input.Dialect,
		Variables:  input.Variables,
	})
	if s.returnOnError(w, r, err) {
		return
	}

	s.writeJson( // nolint:errcheck
		w,
		http.StatusOK,
		apiResponse{
			Success: true,
			Data: map[string]any{
				"sql":         resp.SQL,
				"condition":   resp.Condition,
				"diagnostics": resp.Diagnostics,
			},
		},
		nil,
	)
}

type renderPanelRequest struct {
	Template string       `json:"template"`
	Panel    entity.Panel `json:"panel"`
	Dialect  string       `json:"dialect"`
}

// renderPanelHandler renders the template for every query of a panel.
//
//	POST /api/render/panel {"template": "...", "panel": {"queries": [...]}}
func (s *server) renderPanelHandler(w http.ResponseWriter, r *http.Request) {
	var input renderPanelRequest
	if s.returnOnError(w, r, s.readJson(w, r, &input)) {
		return
	}

	resps, err := s.service.RenderPanel(r.Context(), engine.RenderPanelRequest{
		RequestID: requestID(r),
		Template:  input.Template,
		Panel:     input.Panel,
		Dialect:   input.Dialect,
	})
	if s.returnOnError(w, r, err) {
		return
	}

	results := make([]map[string]any, len(resps))
	for i, resp := range resps {
		results[i] = map[string]any{
			"sql":         resp.SQL,
			"condition":   resp.Condition,
			"diagnostics": resp.Diagnostics,
		}
	}

	s.writeJson( // nolint:errcheck
		w,
		http.StatusOK,
		apiResponse{
			Success:  true,
			Data:     map[string]any{"results": results},
			Metadata: map[string]any{"total": len(results), "panel_type": input.Panel.Type},
		},
		nil,
	)
}

type previewRequest struct {
	Query string              `json:"query"`
	Start time.Time           `json:"start"`
	End   time.Time           `json:"end"`
	Sort  []storage.SortField `json:"sort"`
	Limit int                 `json:"limit"`
}

func (s *server) previewHandler(w http.ResponseWriter, r *http.Request) {
	var input previewRequest
	if s.returnOnError(w, r, s.readJson(w, r, &input)) {
		return
	}

	if input.Limit < 0 || input.Limit > storage.MaxPreviewLimit {
		s.handleError(w, r, fieldError("limit", fmt.Sprintf("Must be between 0 and %d.", storage.MaxPreviewLimit)))
		return
	}

	resp, err := s.service.Preview(r.Context(), engine.PreviewRequest{
		RequestID: requestID(r),
		Query:     input.Query,
		Start:     input.Start,
		End:       input.End,
		Sort:      input.Sort,
		Limit:     input.Limit,
	})
	if s.returnOnError(w, r, err) {
		return
	}

	s.writeJson( // nolint:errcheck
		w,
		http.StatusOK,
		apiResponse{
			Success:  true,
			Data:     map[string]any{"condition": resp.Condition, "rows": resp.Rows},
			Metadata: map[string]any{"count": len(resp.Rows)},
		},
		nil,
	)
}
