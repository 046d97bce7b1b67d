/*
   Copyright 2021 Joseph Cumines

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

// Package travel is a sample domain exercising the planner against
// spec.md §8's Scenarios 3 and 4 (the "simple travel" problem): a person
// gets from their current location to a destination either by walking, a
// step at a time, or by taxi when the distance is too long to walk,
// incurring a fare. Grounded in shape on the same action style as
// internal/blocksworld and the teacher's per-action templates.
package travel

import (
	"fmt"

	"github.com/V-Sekai-fire/aria-hybrid-planner-sub007/domain"
	"github.com/V-Sekai-fire/aria-hybrid-planner-sub007/state"
	"github.com/V-Sekai-fire/aria-hybrid-planner-sub007/todo"
)

// WalkThreshold is the maximum distance (in the domain's arbitrary
// distance units) this domain will cover on foot before preferring a taxi.
const WalkThreshold = 3.0

// TaxiFlagFall and TaxiPerUnit compute the taxi fare: flagfall +
// per-unit-distance * distance.
const (
	TaxiFlagFall = 1.5
	TaxiPerUnit  = 0.5
)

func location(s state.State, person string) string {
	v, _ := s.Get("location", person)
	loc, _ := v.(string)
	return loc
}

func distance(s state.State, person string) float64 {
	v, _ := s.Get("distance", person)
	d, _ := v.(float64)
	return d
}

func riding(s state.State, person string) bool {
	v, ok := s.Get("riding", person)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

func cash(s state.State, person string) float64 {
	v, _ := s.Get("cash", person)
	c, _ := v.(float64)
	return c
}

// NewDomain builds the travel Domain: walk_step/call_taxi/ride_step/
// pay_driver actions, walk/taxi_trip task methods, and a location unigoal
// method choosing between them by WalkThreshold.
func NewDomain() *domain.Domain {
	d := domain.New().SetMetadata("name", "travel")

	d.AddAction("walk_step", domain.ActionSpec{
		Arity: 4, // person, from, to, isLast
		Precondition: func(s state.State, args []any) bool {
			person, from := args[0].(string), args[1].(string)
			return location(s, person) == from
		},
		Effect: func(s state.State, args []any) (state.State, error) {
			person, _, to, isLast := args[0].(string), args[1].(string), args[2].(string), args[3].(bool)
			if isLast {
				return s.Set("location", person, to), nil
			}
			return s, nil
		},
	})

	d.AddAction("call_taxi", domain.ActionSpec{
		Arity: 1,
		Precondition: func(s state.State, args []any) bool {
			return !riding(s, args[0].(string))
		},
		Effect: func(s state.State, args []any) (state.State, error) {
			return s.Set("riding", args[0].(string), true), nil
		},
	})

	d.AddAction("ride_step", domain.ActionSpec{
		Arity: 3, // person, to, isLast
		Precondition: func(s state.State, args []any) bool {
			return riding(s, args[0].(string))
		},
		Effect: func(s state.State, args []any) (state.State, error) {
			person, to, isLast := args[0].(string), args[1].(string), args[2].(bool)
			if isLast {
				return s.Set("location", person, to), nil
			}
			return s, nil
		},
	})

	d.AddAction("pay_driver", domain.ActionSpec{
		Arity: 2, // person, to
		Precondition: func(s state.State, args []any) bool {
			person, to := args[0].(string), args[1].(string)
			return riding(s, person) && location(s, person) == to
		},
		Effect: func(s state.State, args []any) (state.State, error) {
			person := args[0].(string)
			fee := TaxiFlagFall + TaxiPerUnit*distance(s, person)
			return s.Set("cash", person, cash(s, person)-fee).
				Set("owe", person, 0.0).
				Set("riding", person, false), nil
		},
	})

	d.AddTaskMethod("walk", func(s state.State, args []any) ([]todo.Item, error) {
		person, to := args[0].(string), args[1].(string)
		from := location(s, person)
		steps := int(distance(s, person))
		if steps <= 0 {
			return nil, fmt.Errorf("travel: walk requires a positive distance for %q", person)
		}
		items := make([]todo.Item, 0, steps)
		for i := 0; i < steps; i++ {
			items = append(items, todo.TaskItem(todo.Task{
				Name: "walk_step",
				Args: []any{person, from, to, i == steps-1},
			}))
		}
		return items, nil
	})

	d.AddTaskMethod("taxi_trip", func(s state.State, args []any) ([]todo.Item, error) {
		person, to := args[0].(string), args[1].(string)
		steps := int(distance(s, person))
		if steps <= 0 {
			return nil, fmt.Errorf("travel: taxi_trip requires a positive distance for %q", person)
		}
		items := make([]todo.Item, 0, steps+2)
		items = append(items, todo.TaskItem(todo.Task{Name: "call_taxi", Args: []any{person}}))
		for i := 0; i < steps; i++ {
			items = append(items, todo.TaskItem(todo.Task{
				Name: "ride_step",
				Args: []any{person, to, i == steps-1},
			}))
		}
		items = append(items, todo.TaskItem(todo.Task{Name: "pay_driver", Args: []any{person, to}}))
		return items, nil
	})

	d.AddUnigoalMethod("location", func(s state.State, g todo.Goal) ([]todo.Item, error) {
		to, ok := g.Value.(string)
		if !ok {
			return nil, fmt.Errorf("travel: location goal value must be a string, got %T", g.Value)
		}
		if distance(s, g.Subject) <= WalkThreshold {
			return []todo.Item{todo.TaskItem(todo.Task{Name: "walk", Args: []any{g.Subject, to}})}, nil
		}
		return []todo.Item{todo.TaskItem(todo.Task{Name: "taxi_trip", Args: []any{g.Subject, to}})}, nil
	})

	return d
}
