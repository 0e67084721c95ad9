package stats

import (
	"bytes"
	"fmt"
	"testing"
)

// Utilities for validating stats registry contents in tests.

// RuleChecker compares a 'got' registry value against an expected one.
type RuleChecker struct {
	name    string
	checker func(got, expected interface{}) bool
}

func nilCheck(a, b interface{}) (nilFound, eqValues bool) {
	if a == nil && b == nil {
		return true, true
	}
	if a == nil || b == nil {
		return true, false
	}
	return false, false
}

func int64EqTest(a, b interface{}) bool {
	if nilFound, eqValues := nilCheck(a, b); nilFound {
		return eqValues
	}
	return a.(int64) == int64(b.(int))
}

var Int64EqTest = RuleChecker{name: "int64EqTest", checker: int64EqTest}

func floatGTTest(a, b interface{}) bool {
	if nilFound, eqValues := nilCheck(a, b); nilFound {
		return eqValues
	}
	return a.(float64) > b.(float64)
}

var FloatGTTest = RuleChecker{name: "floatGTTest", checker: floatGTTest}

func doesNotExistTest(a, b interface{}) bool {
	return a == nil
}

var DoesNotExistTest = RuleChecker{name: "doesNotExistTest", checker: doesNotExistTest}

// Rule pairs a checker with the expected value for one registry key.
type Rule struct {
	Checker RuleChecker
	Value   interface{}
}

// StatsOk verifies that the registry conforms to every rule in contains,
// reporting each violation through t.Error. Only finagle registries can be
// checked; anything else passes vacuously.
func StatsOk(tag string, statsRegistry StatsRegistry, t *testing.T, contains map[string]Rule) bool {
	asFinagleRegistry, ok := statsRegistry.(*finagleStatsRegistry)
	if !ok {
		return true
	}

	failed := false
	var msg bytes.Buffer
	msg.WriteString(tag)
	msg.WriteString(": stats registry error:\n")

	asJson := asFinagleRegistry.MarshalAll()
	for key, rule := range contains {
		gotValue := asJson[key]
		if rule.Checker.checker(gotValue, rule.Value) {
			continue
		}
		failed = true
		if rule.Checker.name == DoesNotExistTest.name {
			fmt.Fprintf(&msg, "%s: found stat entry when there should not be one\n", key)
		} else {
			fmt.Fprintf(&msg, "%s: got %v, expected to pass %s with %v\n", key, gotValue, rule.Checker.name, rule.Value)
		}
	}
	if failed {
		t.Error(msg.String())
		PPrintStats(tag, asFinagleRegistry)
	}
	return !failed
}

func PPrintStats(tag string, statsRegistry StatsRegistry) {
	asFinagleRegistry, ok := statsRegistry.(*finagleStatsRegistry)
	if !ok {
		return
	}
	regBytes, _ := asFinagleRegistry.MarshalJSONPretty()
	fmt.Printf("%s: stats registry:\n%s\n", tag, regBytes)
}
