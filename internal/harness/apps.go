package harness

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/roach88/trellis/internal/binding"
	"github.com/roach88/trellis/internal/engine"
	"github.com/roach88/trellis/internal/id"
)

// App is a built-in application scenarios run against. Build mounts the
// app's model and views on a fresh context and returns the nodes steps
// and assertions refer to by name.
type App struct {
	Name        string
	Description string

	// Build mounts the app and returns its named refs. Refs point at
	// stable nodes (built outside any binding), so they survive
	// rebuilds.
	Build func(cx *engine.Context) map[string]id.NodeID

	// Events maps scenario event names to payload constructors.
	Events map[string]EventBuilder
}

// EventBuilder turns a scenario step's value into an event payload.
type EventBuilder func(value any) (any, error)

// EventNames returns the app's event names, sorted.
func (a App) EventNames() []string {
	names := make([]string, 0, len(a.Events))
	for name := range a.Events {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var registry = map[string]App{
	"counter": counterApp(),
	"todos":   todosApp(),
	"gauge":   gaugeApp(),
}

// Apps returns the built-in apps, sorted by name.
func Apps() []App {
	names := AppNames()
	apps := make([]App, len(names))
	for i, name := range names {
		apps[i] = registry[name]
	}
	return apps
}

// AppNames returns the registered app names, sorted.
func AppNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupApp returns the app registered under name.
func LookupApp(name string) (App, bool) {
	app, ok := registry[name]
	return app, ok
}

// CounterModel is the classic counter: one integer, bound to a label.
type CounterModel struct {
	Count int
}

// IncrementEvent bumps the counter.
type IncrementEvent struct{}

// DecrementEvent lowers the counter.
type DecrementEvent struct{}

// ResetEvent zeroes the counter.
type ResetEvent struct{}

func (m *CounterModel) Event(cx *engine.Context, e *engine.Event) {
	switch e.Message.(type) {
	case IncrementEvent:
		m.Count++
		e.Consume()
	case DecrementEvent:
		m.Count--
		e.Consume()
	case ResetEvent:
		m.Count = 0
		e.Consume()
	}
}

func counterApp() App {
	return App{
		Name:        "counter",
		Description: "One integer with increment, decrement and reset, shown by a label.",
		Build: func(cx *engine.Context) map[string]id.NodeID {
			refs := map[string]id.NodeID{"root": cx.Root()}
			cx.Mount(func(cx *engine.Context) {
				engine.BuildModel(cx, &CounterModel{})

				// Lenses are built here, not at package init, so their
				// store keys come from whatever key source the run
				// installed.
				count := binding.Field("Count", func(m *CounterModel) *int { return &m.Count })
				text := binding.Map(count, func(c *int) string { return strconv.Itoa(*c) })

				refs["panel"] = engine.NewGroup(cx, func(cx *engine.Context) {
					refs["count"] = engine.NewLabel(cx, engine.FromLens(text)).Node()
				}).Node()
			})
			return refs
		},
		Events: map[string]EventBuilder{
			"increment": nullary(func() any { return IncrementEvent{} }),
			"decrement": nullary(func() any { return DecrementEvent{} }),
			"reset":     nullary(func() any { return ResetEvent{} }),
		},
	}
}

// TodosModel is a list of titles driven through a slice lens, so adding
// and removing items rebuilds the bound list.
type TodosModel struct {
	Items []string
}

// AddTodoEvent appends a title.
type AddTodoEvent struct {
	Title string
}

// RemoveTodoEvent deletes the item at Index. Out-of-range indexes are a
// no-op, matching how lenses treat collections shrinking underneath
// them.
type RemoveTodoEvent struct {
	Index int
}

// ClearTodosEvent removes every item.
type ClearTodosEvent struct{}

func (m *TodosModel) Event(cx *engine.Context, e *engine.Event) {
	switch msg := e.Message.(type) {
	case AddTodoEvent:
		m.Items = append(m.Items, msg.Title)
		e.Consume()
	case RemoveTodoEvent:
		if msg.Index >= 0 && msg.Index < len(m.Items) {
			m.Items = append(m.Items[:msg.Index], m.Items[msg.Index+1:]...)
		}
		e.Consume()
	case ClearTodosEvent:
		m.Items = nil
		e.Consume()
	}
}

func todosApp() App {
	return App{
		Name:        "todos",
		Description: "A todo list bound through a slice lens; one label per item.",
		Build: func(cx *engine.Context) map[string]id.NodeID {
			refs := map[string]id.NodeID{"root": cx.Root()}
			cx.Mount(func(cx *engine.Context) {
				engine.BuildModel(cx, &TodosModel{})

				items := binding.Field("Items", func(m *TodosModel) *[]string { return &m.Items })

				refs["list"] = engine.NewList(cx, items, func(cx *engine.Context, _ int, item binding.Lens[TodosModel, string]) {
					engine.NewLabel(cx, engine.FromLens(item))
				}).Node()
			})
			return refs
		},
		Events: map[string]EventBuilder{
			"add": func(value any) (any, error) {
				title, err := toString(value)
				if err != nil {
					return nil, err
				}
				return AddTodoEvent{Title: title}, nil
			},
			"remove": func(value any) (any, error) {
				index, err := toInt(value)
				if err != nil {
					return nil, err
				}
				return RemoveTodoEvent{Index: index}, nil
			},
			"clear": nullary(func() any { return ClearTodosEvent{} }),
		},
	}
}

// GaugeModel is a level against a maximum, rendered as their ratio.
type GaugeModel struct {
	Level float32
	Max   float32
}

// SetLevelEvent moves the gauge level.
type SetLevelEvent struct {
	Level float32
}

// SetMaxEvent rescales the gauge.
type SetMaxEvent struct {
	Max float32
}

func (m *GaugeModel) Event(cx *engine.Context, e *engine.Event) {
	switch msg := e.Message.(type) {
	case SetLevelEvent:
		m.Level = msg.Level
		e.Consume()
	case SetMaxEvent:
		m.Max = msg.Max
		e.Consume()
	}
}

func gaugeApp() App {
	return App{
		Name:        "gauge",
		Description: "A level/max pair combined by a ratio lens, with a static title.",
		Build: func(cx *engine.Context) map[string]id.NodeID {
			refs := map[string]id.NodeID{"root": cx.Root()}
			cx.Mount(func(cx *engine.Context) {
				engine.BuildModel(cx, &GaugeModel{Max: 100})

				level := binding.Field("Level", func(m *GaugeModel) *float32 { return &m.Level })
				max := binding.Field("Max", func(m *GaugeModel) *float32 { return &m.Max })
				ratio := binding.Map(binding.Ratio(level, max), func(f *float32) string {
					return strconv.FormatFloat(float64(*f), 'g', -1, 32)
				})

				refs["panel"] = engine.NewGroup(cx, func(cx *engine.Context) {
					refs["title"] = engine.NewLabel(cx, engine.FromLens(binding.Static("fuel gauge"))).Node()
					refs["ratio"] = engine.NewLabel(cx, engine.FromLens(ratio)).Node()
				}).Node()
			})
			return refs
		},
		Events: map[string]EventBuilder{
			"set_level": func(value any) (any, error) {
				level, err := toFloat32(value)
				if err != nil {
					return nil, err
				}
				return SetLevelEvent{Level: level}, nil
			},
			"set_max": func(value any) (any, error) {
				max, err := toFloat32(value)
				if err != nil {
					return nil, err
				}
				return SetMaxEvent{Max: max}, nil
			},
		},
	}
}

// nullary wraps an event that carries no payload, rejecting stray
// values so a scenario typo fails instead of being ignored.
func nullary(make func() any) EventBuilder {
	return func(value any) (any, error) {
		if value != nil {
			return nil, fmt.Errorf("event takes no value, got %v", value)
		}
		return make(), nil
	}
}

// toString coerces a step value decoded from YAML or CUE.
func toString(value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("want a string value, got %T", value)
	}
	return s, nil
}

// toInt accepts the integer representations the decoders produce:
// yaml.v3 hands over int, CUE int64, and JSON float64.
func toInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("want an integer value, got %v", v)
		}
		return int(v), nil
	default:
		return 0, fmt.Errorf("want an integer value, got %T", value)
	}
}

func toFloat32(value any) (float32, error) {
	switch v := value.(type) {
	case float32:
		return v, nil
	case float64:
		return float32(v), nil
	case int:
		return float32(v), nil
	case int64:
		return float32(v), nil
	default:
		return 0, fmt.Errorf("want a number value, got %T", value)
	}
}
