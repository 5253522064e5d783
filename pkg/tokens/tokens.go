package tokens

import (
	"fmt"
	"sort"
	"sync"

	"github.com/cloudwego/eino/schema"
	"github.com/tiktoken-go/tokenizer"
)

// perMessageOverhead approximates the role and separator tokens chat formats add to every message.
const perMessageOverhead = 4

// Estimator counts tokens locally for providers that leave usage out of their responses.
type Estimator struct {
	mu    sync.RWMutex
	codec tokenizer.Codec
}

func NewEstimator() *Estimator {
	return &Estimator{}
}

func (e *Estimator) getCodec() (tokenizer.Codec, error) {
	e.mu.RLock()
	if e.codec != nil {
		defer e.mu.RUnlock()
		return e.codec, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.codec != nil {
		return e.codec, nil
	}
	codec, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return nil, fmt.Errorf("failed to get tokenizer encoding: %w", err)
	}
	e.codec = codec
	return codec, nil
}

func (e *Estimator) CountText(text string) int {
	if text == "" {
		return 0
	}
	codec, err := e.getCodec()
	if err != nil {
		// rough chars-per-token fallback
		return (len(text) + 3) / 4
	}
	ids, _, err := codec.Encode(text)
	if err != nil {
		return (len(text) + 3) / 4
	}
	return len(ids)
}

func (e *Estimator) CountMessages(msgs []*schema.Message) int {
	total := 0
	for _, msg := range msgs {
		if msg == nil {
			continue
		}
		total += perMessageOverhead + e.CountText(msg.Content)
		for _, tc := range msg.ToolCalls {
			total += e.CountText(tc.Function.Name) + e.CountText(tc.Function.Arguments)
		}
	}
	return total
}

type Usage struct {
	Calls            int  `json:"calls"`
	PromptTokens     int  `json:"prompt_tokens"`
	CompletionTokens int  `json:"completion_tokens"`
	TotalTokens      int  `json:"total_tokens"`
	Estimated        bool `json:"estimated"`
}

func (u *Usage) add(other Usage) {
	u.Calls += other.Calls
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
	u.Estimated = u.Estimated || other.Estimated
}

// Tracker aggregates usage per completion role. Safe for concurrent use.
type Tracker struct {
	mu     sync.Mutex
	byRole map[string]Usage
}

func NewTracker() *Tracker {
	return &Tracker{byRole: make(map[string]Usage)}
}

func (t *Tracker) Record(role string, u Usage) {
	if t == nil {
		return
	}
	if u.Calls == 0 {
		u.Calls = 1
	}
	if u.TotalTokens == 0 {
		u.TotalTokens = u.PromptTokens + u.CompletionTokens
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	cur := t.byRole[role]
	cur.add(u)
	t.byRole[role] = cur
}

type Snapshot struct {
	Total  Usage            `json:"total"`
	ByRole map[string]Usage `json:"by_role"`
}

func (t *Tracker) Snapshot() Snapshot {
	snap := Snapshot{ByRole: map[string]Usage{}}
	if t == nil {
		return snap
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	roles := make([]string, 0, len(t.byRole))
	for role := range t.byRole {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	for _, role := range roles {
		u := t.byRole[role]
		snap.ByRole[role] = u
		snap.Total.add(u)
	}
	return snap
}

func (t *Tracker) Reset() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byRole = make(map[string]Usage)
}
