// Package obslog provides a small chainable structured-logging field
// builder on top of logrus, plus per-domain convenience constructors for
// the engine's recurring log shapes (kernel firing, governor stage,
// snapshot install).
package obslog

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Fields is a chainable builder over logrus.Fields.
type Fields map[string]interface{}

// NewFields returns an empty field set.
func NewFields() Fields {
	return Fields{}
}

func (f Fields) Component(name string) Fields {
	f["component"] = name
	return f
}

func (f Fields) Operation(name string) Fields {
	f["operation"] = name
	return f
}

func (f Fields) Resource(kind, name string) Fields {
	f["resource_type"] = kind
	if name != "" {
		f["resource_name"] = name
	}
	return f
}

func (f Fields) Duration(d time.Duration) Fields {
	f["duration_ms"] = d.Milliseconds()
	return f
}

func (f Fields) Error(err error) Fields {
	if err != nil {
		f["error"] = err.Error()
	}
	return f
}

func (f Fields) CaseID(id string) Fields {
	if id != "" {
		f["case_id"] = id
	}
	return f
}

func (f Fields) SpecID(id string) Fields {
	if id != "" {
		f["spec_id"] = id
	}
	return f
}

func (f Fields) TraceID(id string) Fields {
	if id != "" {
		f["trace_id"] = id
	}
	return f
}

func (f Fields) Count(n int) Fields {
	f["count"] = n
	return f
}

func (f Fields) Version(v string) Fields {
	f["version"] = v
	return f
}

func (f Fields) Custom(key string, value interface{}) Fields {
	f[key] = value
	return f
}

// ToLogrus adapts Fields for a *logrus.Entry call site.
func (f Fields) ToLogrus() logrus.Fields {
	return logrus.Fields(f)
}

// KernelFields describes one hot-path firing for the observation stream.
func KernelFields(patternID uint8, caseID string, ticksUsed, limit uint8) Fields {
	return NewFields().
		Component("kernel").
		Operation("evaluate").
		CaseID(caseID).
		Custom("pattern_id", patternID).
		Custom("ticks_used", ticksUsed).
		Custom("tick_limit", limit)
}

// GovernorFields describes one MAPE-K stage transition.
func GovernorFields(stage string) Fields {
	return NewFields().Component("governor").Operation(stage)
}

// SnapshotFields describes a Σ install attempt.
func SnapshotFields(version uint64, hash string) Fields {
	return NewFields().Component("ontology").Operation("install").Version(hash).Custom("snapshot_version", version)
}
