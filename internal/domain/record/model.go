package record

import (
	"encoding/json"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/strokecare/strokecare/internal/platform/apperr"
)

// Record is one stroke-risk observation in the document store. UserID is the
// owning patient's account id, or nil for records submitted anonymously or by
// doctors. ExternalID is an optional dataset identifier and is unrelated to
// account ids.
type Record struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID          *int64             `bson:"user_id" json:"user_id"`
	ExternalID      *int64             `bson:"id,omitempty" json:"id,omitempty"`
	Gender          string             `bson:"gender" json:"gender"`
	Age             int                `bson:"age" json:"age"`
	Hypertension    int                `bson:"hypertension" json:"hypertension"`
	HeartDisease    int                `bson:"heart_disease" json:"heart_disease"`
	EverMarried     string             `bson:"ever_married" json:"ever_married"`
	WorkType        string             `bson:"work_type" json:"work_type"`
	ResidenceType   string             `bson:"Residence_type" json:"Residence_type"`
	AvgGlucoseLevel float64            `bson:"avg_glucose_level" json:"avg_glucose_level"`
	BMI             float64            `bson:"bmi" json:"bmi"`
	SmokingStatus   string             `bson:"smoking_status" json:"smoking_status"`
	Stroke          int                `bson:"stroke" json:"stroke"`
}

// Input carries the raw field values of a record submission before type
// coercion. Every value arrives as a string whether it came from an HTML
// form or a JSON body.
type Input struct {
	ExternalID      string
	Gender          string
	Age             string
	Hypertension    string
	HeartDisease    string
	EverMarried     string
	WorkType        string
	ResidenceType   string
	AvgGlucoseLevel string
	BMI             string
	SmokingStatus   string
	Stroke          string
}

type fieldError struct {
	field string
	want  string
}

// Parse coerces and validates the raw input into a Record. Coercion is
// all-or-nothing: any bad field rejects the whole submission and nothing is
// stored. The returned record has no ID and no owner; callers assign those.
func (in Input) Parse() (*Record, error) {
	var bad []fieldError
	r := &Record{}

	intField := func(field, raw string, dst *int) {
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			bad = append(bad, fieldError{field, "integer"})
			return
		}
		*dst = v
	}
	floatField := func(field, raw string, dst *float64) {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			bad = append(bad, fieldError{field, "number"})
			return
		}
		*dst = v
	}
	strField := func(field, raw string, dst *string) {
		v := strings.TrimSpace(raw)
		if v == "" {
			bad = append(bad, fieldError{field, "non-empty"})
			return
		}
		*dst = v
	}

	intField("age", in.Age, &r.Age)
	intField("hypertension", in.Hypertension, &r.Hypertension)
	intField("heart_disease", in.HeartDisease, &r.HeartDisease)
	intField("stroke", in.Stroke, &r.Stroke)
	floatField("avg_glucose_level", in.AvgGlucoseLevel, &r.AvgGlucoseLevel)
	floatField("bmi", in.BMI, &r.BMI)
	strField("gender", in.Gender, &r.Gender)
	strField("ever_married", in.EverMarried, &r.EverMarried)
	strField("work_type", in.WorkType, &r.WorkType)
	strField("Residence_type", in.ResidenceType, &r.ResidenceType)
	strField("smoking_status", in.SmokingStatus, &r.SmokingStatus)

	if raw := strings.TrimSpace(in.ExternalID); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			bad = append(bad, fieldError{"id", "integer"})
		} else {
			r.ExternalID = &v
		}
	}

	if len(bad) > 0 {
		parts := make([]string, len(bad))
		for i, fe := range bad {
			parts[i] = fe.field + " must be " + fe.want
		}
		return nil, apperr.New(apperr.Validation, "invalid record: %s", strings.Join(parts, "; "))
	}
	return r, nil
}

// InputFromJSON flattens a decoded JSON object into an Input. Numeric JSON
// values are stringified so form and API submissions share one coercion path.
func InputFromJSON(m map[string]json.RawMessage) Input {
	get := func(key string) string {
		raw, ok := m[key]
		if !ok {
			return ""
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil {
			return n.String()
		}
		return string(raw)
	}
	return Input{
		ExternalID:      get("id"),
		Gender:          get("gender"),
		Age:             get("age"),
		Hypertension:    get("hypertension"),
		HeartDisease:    get("heart_disease"),
		EverMarried:     get("ever_married"),
		WorkType:        get("work_type"),
		ResidenceType:   get("Residence_type"),
		AvgGlucoseLevel: get("avg_glucose_level"),
		BMI:             get("bmi"),
		SmokingStatus:   get("smoking_status"),
		Stroke:          get("stroke"),
	}
}
