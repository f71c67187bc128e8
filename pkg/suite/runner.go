/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package suite

import (
	"context"
	"fmt"
	"regexp"
	"sort"
)

// Select picks the cases to run. A non empty selectExpr overrides tests, otherwise a case is kept
// when any of tests matches its flat name, or every case when tests is empty. Expressions match
// from the start of the name. With features set only cases tagged with one of them are kept.
// The selection is ordered by priority, then by name.
func Select(cases []Case, selectExpr string, tests, features []string) ([]Case, error) {
	exprs := tests
	if selectExpr != "" {
		exprs = []string{selectExpr}
	}

	matchers := make([]*regexp.Regexp, 0, len(exprs))

	for _, expr := range exprs {
		re, err := regexp.Compile("^(?:" + expr + ")")
		if err != nil {
			return nil, fmt.Errorf("select %q: %w", expr, err)
		}

		matchers = append(matchers, re)
	}

	selected := make([]Case, 0, len(cases))

	for i := range cases {
		c := cases[i]

		if len(features) > 0 && !c.HasFeature(features...) {
			continue
		}

		if len(matchers) > 0 && !matchAny(matchers, c.FlatName()) {
			continue
		}

		selected = append(selected, c)
	}

	sort.SliceStable(selected, func(i, j int) bool {
		if selected[i].Priority != selected[j].Priority {
			return selected[i].Priority < selected[j].Priority
		}

		return selected[i].FlatName() < selected[j].FlatName()
	})

	return selected, nil
}

func matchAny(matchers []*regexp.Regexp, name string) bool {
	for _, re := range matchers {
		if re.MatchString(name) {
			return true
		}
	}

	return false
}

// Run runs cases one after the other and records their outcome in report. Cases share the agent
// inbox, so they never overlap. Cases left when ctx is done are not recorded.
func Run(ctx context.Context, env *Env, cases []Case, report *Report) {
	for i := range cases {
		c := &cases[i]

		if ctx.Err() != nil {
			logger.Warnf("run cancelled, %d cases skipped", len(cases)-i)

			return
		}

		var notes []string

		caseEnv := env.withWarn(func(note string) {
			notes = append(notes, note)
		})

		logger.Infof("running %s", c.FlatName())

		err := c.Run(ctx, caseEnv)
		if err != nil {
			logger.Errorf("%s failed: %s", c.FlatName(), err)
		} else {
			logger.Infof("%s passed", c.FlatName())
		}

		report.AddResult(c, err)
		report.AddNotes(c, notes...)

		env.Agent.Inbox().Reset()
	}
}
