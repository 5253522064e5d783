package llm

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	contractx "github.com/tanpawarit/support-dispatch/agent/contract"
	tokensx "github.com/tanpawarit/support-dispatch/pkg/tokens"
)

// Models holds one instrumented completion model per role.
type Models struct {
	classifier einomodel.ToolCallingChatModel
	intent     einomodel.ToolCallingChatModel
	specialist einomodel.ToolCallingChatModel
	tracker    *tokensx.Tracker
}

func (m *Models) Classifier() einomodel.ToolCallingChatModel { return m.classifier }

func (m *Models) Intent() einomodel.ToolCallingChatModel { return m.intent }

func (m *Models) Specialist() einomodel.ToolCallingChatModel { return m.specialist }

func (m *Models) Usage() *tokensx.Tracker { return m.tracker }

func NewModels(ctx context.Context, cfg Config, tracker *tokensx.Tracker) (*Models, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	built := make(map[Role]einomodel.ToolCallingChatModel, 3)
	for _, role := range []Role{RoleClassifier, RoleIntent, RoleSpecialist} {
		orCfg := cfg.OpenRouterFor(role)
		m, err := orCfg.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: create %s model: %v", contractx.ErrModelInvoke, role, err)
		}
		built[role] = m
	}

	return Wrap(built[RoleClassifier], built[RoleIntent], built[RoleSpecialist], cfg, tracker), nil
}

// Wrap instruments already constructed models. Tests use it with fakes.
func Wrap(classifier, intent, specialist einomodel.ToolCallingChatModel, cfg Config, tracker *tokensx.Tracker) *Models {
	if tracker == nil {
		tracker = tokensx.NewTracker()
	}
	estimator := tokensx.NewEstimator()
	return &Models{
		classifier: Instrument(classifier, RoleClassifier, cfg.CallTimeout, tracker, estimator),
		intent:     Instrument(intent, RoleIntent, cfg.CallTimeout, tracker, estimator),
		specialist: Instrument(specialist, RoleSpecialist, cfg.CallTimeout, tracker, estimator),
		tracker:    tracker,
	}
}
