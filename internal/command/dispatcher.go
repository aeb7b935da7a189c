package command

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"shipdesk/internal/dispatch"
	"shipdesk/internal/memory"
	"shipdesk/internal/quote"
)

// Dispatcher translates the operator command surface into engine calls.
// It is a thin front: every command maps onto exactly one engine
// operation and formats its result for a chat or CLI consumer.
type Dispatcher struct {
	orch  *dispatch.Orchestrator
	store *memory.Store
}

func NewDispatcher(orch *dispatch.Orchestrator, store *memory.Store) *Dispatcher {
	return &Dispatcher{orch: orch, store: store}
}

const usage = `commands:
  route <zip> <weight>                 pick facility, mode, and provider
  assign <orderId>                     route a known order
  parcel <fromZip> <toZip> <weight>    quote parcel carriers only
  transport <fromZip> <toZip> <weight> quote on-demand transport only
  memory                               show the analytics summary
  clear <kind>                         reset one window (observation|order|route|delivery)`

// Execute parses one command line and runs it. Typed engine errors pass
// through unmodified so callers can react to them.
func (d *Dispatcher) Execute(ctx context.Context, line string) (string, error) {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) == 0 {
		return usage, nil
	}
	verb := strings.ToLower(fields[0])
	args := fields[1:]
	switch verb {
	case "help":
		return usage, nil
	case "route":
		return d.route(ctx, args)
	case "assign":
		return d.assign(ctx, args)
	case "parcel", "transport":
		cat, _ := quote.ParseCategory(verb)
		return d.quoteCategory(ctx, cat, args)
	case "memory":
		return d.memorySummary(), nil
	case "clear":
		return d.clear(ctx, args)
	}
	return "", fmt.Errorf("unknown command %q\n%s", verb, usage)
}

func (d *Dispatcher) route(ctx context.Context, args []string) (string, error) {
	if len(args) != 2 {
		return "", fmt.Errorf("usage: route <zip> <weight>")
	}
	weight, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return "", fmt.Errorf("%w: weight %q is not a number", quote.ErrInvalidRequest, args[1])
	}
	decision, err := d.orch.Route(ctx, args[0], weight)
	if err != nil {
		return "", err
	}
	return formatDecision(decision), nil
}

func (d *Dispatcher) assign(ctx context.Context, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("usage: assign <orderId>")
	}
	decision, err := d.orch.AssignOrder(ctx, args[0])
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("order %s assigned\n%s", args[0], formatDecision(decision)), nil
}

func (d *Dispatcher) quoteCategory(ctx context.Context, cat quote.Category, args []string) (string, error) {
	if len(args) != 3 {
		return "", fmt.Errorf("usage: %s <fromZip> <toZip> <weight>", cat)
	}
	weight, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return "", fmt.Errorf("%w: weight %q is not a number", quote.ErrInvalidRequest, args[2])
	}
	req := quote.Request{OriginZip: args[0], DestZip: args[1], WeightLb: weight}
	result, err := d.orch.QuoteCategory(ctx, cat, req)
	if err != nil {
		return "", err
	}
	return formatAggregate(result), nil
}

func (d *Dispatcher) memorySummary() string {
	summary := d.store.Analytics()
	var b strings.Builder
	fmt.Fprintf(&b, "orders=%d deliveries=%d routes=%d\n",
		summary.TotalOrders, summary.TotalDeliveries, summary.TotalRoutes)
	fmt.Fprintf(&b, "avg delivery price: $%s\n", summary.AvgDeliveryPrice.StringFixed(2))
	top := summary.MostUsedProvider
	if top == "" {
		top = "-"
	}
	fmt.Fprintf(&b, "most used provider: %s", top)
	return b.String()
}

func (d *Dispatcher) clear(ctx context.Context, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("usage: clear <kind>")
	}
	kind, ok := memory.ParseKind(args[0])
	if !ok {
		return "", fmt.Errorf("unknown kind %q (observation|order|route|delivery)", args[0])
	}
	if err := d.store.Clear(ctx, kind); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s window cleared", kind), nil
}

func formatDecision(d *dispatch.RouteDecision) string {
	return fmt.Sprintf("%s\nfacility: %s (%s)\ndecision: %s",
		d.Recommendation, d.Facility.Name, d.Facility.Zip, d.ID)
}

func formatAggregate(result *dispatch.AggregateResult) string {
	var b strings.Builder
	if result.Best == nil {
		fmt.Fprintf(&b, "no %s quotes available\n", result.Category)
	} else {
		fmt.Fprintf(&b, "best: %s %s at $%s\n",
			result.Best.Provider, result.Best.Service, result.Best.Price.StringFixed(2))
		if result.SecondBest != nil {
			fmt.Fprintf(&b, "next: %s %s at $%s (saves $%s)\n",
				result.SecondBest.Provider, result.SecondBest.Service,
				result.SecondBest.Price.StringFixed(2), result.Savings.StringFixed(2))
		}
	}
	for _, pr := range result.PerProvider {
		if pr.Failed() {
			fmt.Fprintf(&b, "  %s: failed (%s)\n", pr.Provider, pr.Failure)
			continue
		}
		fmt.Fprintf(&b, "  %s: %d quotes\n", pr.Provider, len(pr.Quotes))
	}
	return strings.TrimRight(b.String(), "\n")
}
