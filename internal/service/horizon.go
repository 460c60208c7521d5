package service

import (
	"errors"
	"time"

	"github.com/Harshitk-cp/timely/internal/horizon"
	"github.com/Harshitk-cp/timely/internal/timecodec"
	"go.uber.org/zap"
)

// EvaluateRequest is a horizon evaluation for a caller that holds a rule
// reference but no sensor.
type EvaluateRequest struct {
	Fnc             string
	Par             timecodec.Bag
	EventStart      time.Time
	EventResolution time.Duration
	Bounds          bool
}

type EvaluateResult struct {
	KnowledgeHorizon time.Duration
	KnowledgeTime    time.Time
	Bounds           *horizon.Bounds
}

type HorizonService struct {
	logger *zap.Logger
}

func NewHorizonService(logger *zap.Logger) *HorizonService {
	return &HorizonService{logger: logger}
}

func (s *HorizonService) Rules() []horizon.Rule {
	return horizon.Rules()
}

func (s *HorizonService) Evaluate(req EvaluateRequest) (*EvaluateResult, error) {
	h, err := horizon.Evaluate(req.Fnc, req.Par, req.EventStart, req.EventResolution)
	if err != nil {
		s.logRefusal(req, err)
		return nil, err
	}

	res := &EvaluateResult{
		KnowledgeHorizon: h,
		KnowledgeTime:    req.EventStart.UTC().Add(-h),
	}
	if !req.Bounds {
		return res, nil
	}

	b, err := horizon.EvaluateBounds(req.Fnc, req.Par, req.EventStart, req.EventResolution)
	if err != nil {
		return nil, err
	}
	res.Bounds = &b
	return res, nil
}

func (s *HorizonService) logRefusal(req EvaluateRequest, err error) {
	if !errors.Is(err, horizon.ErrVerificationFailed) {
		return
	}
	keys := make([]string, 0, len(req.Par))
	for k := range req.Par {
		keys = append(keys, k)
	}
	s.logger.Warn("unregistered knowledge horizon rule refused",
		zap.String("knowledge_horizon_fnc", req.Fnc),
		zap.Strings("param_keys", keys),
	)
}
