package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pageza/mealplan-bot/backend/internal/logger"
	"github.com/pageza/mealplan-bot/backend/internal/types"
)

// Action names as referenced by the dialogue domain
const (
	ActionGetNutrition      = "action_get_nutrition"
	ActionFindRecipes       = "action_find_recipes"
	ActionMealPlanToday     = "action_meal_plan_today"
	ActionMealPlanTomorrow  = "action_meal_plan_tomorrow"
	ActionWeeklyMealPlan    = "action_weekly_meal_plan"
	ActionValidateNutrition = "validate_nutrition_form"
	ActionValidateRecipe    = "validate_recipe_form"
)

// Slot names
const (
	SlotFood       = "food"
	SlotIngredient = "ingredient"
)

// minSlotLength is the shortest food or ingredient value a form accepts
const minSlotLength = 2

// Action is a custom action the dialogue framework can call by name
type Action interface {
	Name() string
	Run(ctx context.Context, tracker *types.Tracker) (*types.ActionResponse, error)
}

type actionFunc struct {
	name string
	run  func(ctx context.Context, tracker *types.Tracker) (*types.ActionResponse, error)
}

func (a actionFunc) Name() string { return a.name }

func (a actionFunc) Run(ctx context.Context, tracker *types.Tracker) (*types.ActionResponse, error) {
	return a.run(ctx, tracker)
}

// NewAction wraps a function as an Action
func NewAction(name string, run func(ctx context.Context, tracker *types.Tracker) (*types.ActionResponse, error)) Action {
	return actionFunc{name: name, run: run}
}

// Dispatcher routes action calls to registered actions
type Dispatcher struct {
	actions map[string]Action
}

// NewDispatcher creates a Dispatcher with the given actions registered
func NewDispatcher(actions ...Action) *Dispatcher {
	d := &Dispatcher{actions: make(map[string]Action, len(actions))}
	for _, a := range actions {
		d.Register(a)
	}
	return d
}

// Register adds or replaces an action
func (d *Dispatcher) Register(a Action) {
	d.actions[a.Name()] = a
}

// Names returns the registered action names in sorted order
func (d *Dispatcher) Names() []string {
	names := make([]string, 0, len(d.actions))
	for name := range d.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes the action named in req
func (d *Dispatcher) Run(ctx context.Context, req *types.ActionRequest) (*types.ActionResponse, error) {
	action, ok := d.actions[req.NextAction]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, req.NextAction)
	}

	tracker := req.Tracker
	if tracker.SenderID == "" {
		tracker.SenderID = req.SenderID
	}

	start := time.Now()
	resp, err := action.Run(ctx, &tracker)
	fields := []zap.Field{
		zap.String("action", req.NextAction),
		zap.String("sender_id", tracker.SenderID),
		zap.Duration("latency", time.Since(start)),
	}
	if err != nil {
		logger.Error("action failed", append(fields, zap.Error(err))...)
		return nil, err
	}
	logger.Info("action completed", append(fields, zap.Int("responses", len(resp.Responses)))...)
	return resp, nil
}

// DefaultActions builds every action the assistant offers
func DefaultActions(nutrition INutritionService, recipes IRecipeService) []Action {
	return []Action{
		NutritionAction(nutrition),
		RecipeAction(recipes),
		NewAction(ActionMealPlanToday, staticReply(TodayPlanMessage)),
		NewAction(ActionMealPlanTomorrow, staticReply(TomorrowPlanMessage)),
		NewAction(ActionWeeklyMealPlan, staticReply(WeeklyPlanMessage)),
		FormValidationAction(ActionValidateNutrition, SlotFood, "Please give a valid food name."),
		FormValidationAction(ActionValidateRecipe, SlotIngredient, "Please give a valid ingredient."),
	}
}

// NutritionAction answers with the nutrition facts of the food slot
func NutritionAction(svc INutritionService) Action {
	return NewAction(ActionGetNutrition, func(ctx context.Context, tracker *types.Tracker) (*types.ActionResponse, error) {
		food := SlotValue(tracker, SlotFood)
		if food == "" {
			return Reply(MsgAskFood), nil
		}
		match, err := svc.Lookup(ctx, food)
		if err != nil {
			return Reply(NutritionMessage(nil, err)), nil
		}
		return Reply(NutritionMessage(match, nil), types.SlotSet(SlotFood, nil)), nil
	})
}

// RecipeAction answers with a recipe for the ingredient slot
func RecipeAction(svc IRecipeService) Action {
	return NewAction(ActionFindRecipes, func(ctx context.Context, tracker *types.Tracker) (*types.ActionResponse, error) {
		ingredient := SlotValue(tracker, SlotIngredient)
		if ingredient == "" {
			return Reply(MsgAskIngredient), nil
		}
		summary, err := svc.FindRecipe(ctx, ingredient)
		if err != nil {
			return Reply(RecipeMessage(nil, err)), nil
		}
		return Reply(RecipeMessage(summary, nil), types.SlotSet(SlotIngredient, nil)), nil
	})
}

// FormValidationAction checks a form slot: short values are rejected with
// invalidMsg and reset, others are stored trimmed.
func FormValidationAction(name, slot, invalidMsg string) Action {
	return NewAction(name, func(_ context.Context, tracker *types.Tracker) (*types.ActionResponse, error) {
		raw, present := tracker.Slots[slot]
		if !present || raw == nil {
			return Reply(""), nil
		}
		value, ok := ValidateSlotText(raw)
		if !ok {
			return Reply(invalidMsg, types.SlotSet(slot, nil)), nil
		}
		return Reply("", types.SlotSet(slot, value)), nil
	})
}

// ValidateSlotText trims a slot value and checks its minimum length
func ValidateSlotText(raw any) (string, bool) {
	v := strings.TrimSpace(slotString(raw))
	if len([]rune(v)) < minSlotLength {
		return "", false
	}
	return v, true
}

// SlotValue prefers the latest message's entity of the same name over the stored slot
func SlotValue(tracker *types.Tracker, name string) string {
	for _, e := range tracker.LatestMessage.Entities {
		if e.Entity != name {
			continue
		}
		if v := strings.TrimSpace(slotString(e.Value)); v != "" {
			return v
		}
	}
	return strings.TrimSpace(slotString(tracker.Slots[name]))
}

func slotString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}

// Reply builds an action response. An empty text adds no message.
func Reply(text string, events ...types.Event) *types.ActionResponse {
	resp := &types.ActionResponse{
		Events:    []types.Event{},
		Responses: []types.BotMessage{},
	}
	resp.Events = append(resp.Events, events...)
	if text != "" {
		resp.Responses = append(resp.Responses, types.BotMessage{Text: text})
	}
	return resp
}

func staticReply(render func() string) func(context.Context, *types.Tracker) (*types.ActionResponse, error) {
	return func(context.Context, *types.Tracker) (*types.ActionResponse, error) {
		return Reply(render()), nil
	}
}

// IsUnknownAction reports whether err came from calling an unregistered action
func IsUnknownAction(err error) bool {
	return errors.Is(err, ErrUnknownAction)
}
