// Package console keeps the view state of the API endpoint test card: one slot per
// endpoint, each holding the text last rendered for it.
package console

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/angelmondragon/webtemplate/pkg/apiclient"
	pkgerrors "github.com/angelmondragon/webtemplate/pkg/errors"
	"github.com/angelmondragon/webtemplate/pkg/logger"
)

const (
	LoadingText = "Loading..."

	SlotTest  = "test"
	SlotAdmin = "admin"
)

// DefaultSlots maps slot names to the endpoints the home page calls.
var DefaultSlots = map[string]string{
	SlotTest:  "/api/test",
	SlotAdmin: "/api/admin/dashboard",
}

// Caller is the API client surface the console drives.
type Caller interface {
	Do(ctx context.Context, endpoint string, opts apiclient.RequestOptions) (json.RawMessage, error)
}

// Slot is a point-in-time copy of one slot. An empty Response means never called.
type Slot struct {
	Name     string `json:"name"`
	Endpoint string `json:"endpoint"`
	Response string `json:"response"`
}

// State is a snapshot of the whole console.
type State struct {
	Loading bool   `json:"loading"`
	Slots   []Slot `json:"slots"`
}

type Console struct {
	client Caller
	logg   *logger.Logger

	mu       sync.Mutex
	slots    map[string]*Slot
	inFlight int
}

// New builds a console over slots (name to endpoint). A nil map uses DefaultSlots.
func New(client Caller, slots map[string]string, logg *logger.Logger) *Console {
	if slots == nil {
		slots = DefaultSlots
	}
	c := &Console{client: client, logg: logg, slots: make(map[string]*Slot, len(slots))}
	for name, endpoint := range slots {
		c.slots[name] = &Slot{Name: name, Endpoint: endpoint}
	}
	return c
}

// Snapshot returns the current state with slots sorted by name.
func (c *Console) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := State{Loading: c.inFlight > 0, Slots: make([]Slot, 0, len(c.slots))}
	for _, s := range c.slots {
		state.Slots = append(state.Slots, *s)
	}
	sort.Slice(state.Slots, func(i, j int) bool { return state.Slots[i].Name < state.Slots[j].Name })
	return state
}

// Call runs the slot's endpoint once and stores the rendered outcome in the slot.
// The slot shows LoadingText while the call is in flight. Only an unknown slot name
// is reported as an error; call failures are rendered into the slot.
func (c *Console) Call(ctx context.Context, name string) (Slot, error) {
	c.mu.Lock()
	slot, ok := c.slots[name]
	if !ok {
		c.mu.Unlock()
		return Slot{}, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("unknown console slot %q", name))
	}
	slot.Response = LoadingText
	c.inFlight++
	endpoint := slot.Endpoint
	c.mu.Unlock()

	rendered := c.Run(ctx, endpoint, apiclient.RequestOptions{})

	c.mu.Lock()
	defer c.mu.Unlock()
	slot.Response = rendered
	c.inFlight--
	return *slot, nil
}

// Run performs one ad-hoc call without touching any slot and returns the display text.
func (c *Console) Run(ctx context.Context, endpoint string, opts apiclient.RequestOptions) string {
	data, err := c.client.Do(ctx, endpoint, opts)
	if err != nil && c.logg != nil {
		c.logg.Warn(c.logg.WithFields(ctx, map[string]any{"endpoint": endpoint, "error": err.Error()}), "console.call failed")
	}
	return Render(data, err)
}

// Render produces the display text for an API client outcome: "Error: <message>" on
// failure, "null" for an empty success, otherwise the JSON indented by two spaces.
func Render(data json.RawMessage, err error) string {
	if err != nil {
		return "Error: " + err.Error()
	}
	if data == nil {
		return "null"
	}

	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "  "); err != nil {
		return string(data)
	}
	return out.String()
}
