package view

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/nsolari/procwatch/model"
)

// CompiledFilter is a model.Filter with its regex (if any) pre-compiled,
// so Apply doesn't recompile a pattern per process per tick.
type CompiledFilter struct {
	f   model.Filter
	re  *regexp.Regexp
}

// Compile validates and prepares filters for repeated use. An invalid
// regex filter is reported in the returned error and excluded from the
// compiled set — callers decide whether that's fatal.
func Compile(filters []model.Filter) ([]CompiledFilter, error) {
	compiled := make([]CompiledFilter, 0, len(filters))
	var errs []string
	for _, f := range filters {
		cf := CompiledFilter{f: f}
		if f.Op == "regex" {
			re, err := regexp.Compile(f.Value)
			if err != nil {
				errs = append(errs, fmt.Sprintf("field %s: invalid regex %q: %v", f.Field, f.Value, err))
				continue
			}
			cf.re = re
		}
		compiled = append(compiled, cf)
	}
	var err error
	if len(errs) > 0 {
		err = fmt.Errorf("view: %s", strings.Join(errs, "; "))
	}
	return compiled, err
}

// Apply keeps only processes matching every filter (AND semantics, not
// OR) — an empty filter set keeps everything.
func Apply(processes []model.ProcessRecord, filters []CompiledFilter) []model.ProcessRecord {
	if len(filters) == 0 {
		return processes
	}
	out := make([]model.ProcessRecord, 0, len(processes))
	for _, p := range processes {
		if matchesAll(p, filters) {
			out = append(out, p)
		}
	}
	return out
}

func matchesAll(p model.ProcessRecord, filters []CompiledFilter) bool {
	for _, cf := range filters {
		if !matches(p, cf) {
			return false
		}
	}
	return true
}

func matches(p model.ProcessRecord, cf CompiledFilter) bool {
	value := fieldValue(p, cf.f.Field)
	switch cf.f.Op {
	case "eq":
		return value == cf.f.Value
	case "contains":
		return strings.Contains(value, cf.f.Value)
	case "regex":
		return cf.re != nil && cf.re.MatchString(value)
	case "gt", "lt", "gte", "lte":
		return numericCompare(p, cf.f.Field, cf.f.Op, cf.f.Value)
	default:
		return true
	}
}

func fieldValue(p model.ProcessRecord, field string) string {
	switch field {
	case "name":
		return p.Name
	case "user":
		return p.User
	case "command":
		return p.Command
	case "state":
		return string(p.State)
	default:
		return ""
	}
}

func numericCompare(p model.ProcessRecord, field, op, value string) bool {
	want, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return false
	}
	var got float64
	switch field {
	case "cpu":
		got = p.CPUPercent
	case "memory":
		got = float64(p.RSSKB)
	case "memory_percent":
		got = p.MemoryPercent
	case "pid":
		got = float64(p.PID)
	default:
		return false
	}
	switch op {
	case "gt":
		return got > want
	case "gte":
		return got >= want
	case "lt":
		return got < want
	case "lte":
		return got <= want
	default:
		return false
	}
}
