// Package classify maps a table's declared weight code to its load class.
package classify

import (
	"errors"
	"fmt"
	"strings"

	model "github.com/tigerroll/surfin-flow/pkg/ingest/core/domain/model"
	"github.com/tigerroll/surfin-flow/pkg/ingest/support/util/exception"
)

const moduleName = "classify"

var weightCodes = map[string]model.WeightClass{
	"LGT": model.WeightLight,
	"MED": model.WeightMedium,
	"HVY": model.WeightHeavy,
}

var frequencyCodes = map[string]model.Frequency{
	string(model.FrequencyHourly):  model.FrequencyHourly,
	string(model.FrequencyDaily):   model.FrequencyDaily,
	string(model.FrequencyWeekly):  model.FrequencyWeekly,
	string(model.FrequencyMonthly): model.FrequencyMonthly,
}

// Weight classifies a 3-character weight code. There is no default: an
// unknown code is a configuration error.
func Weight(code string) (model.WeightClass, error) {
	class, ok := weightCodes[strings.ToUpper(code)]
	if !ok {
		return "", exception.NewConfigurationErrorf(moduleName, "unrecognized weight code '%s'", code)
	}
	return class, nil
}

// Code splits a 6-character weight+frequency code and classifies both halves.
func Code(code string) (model.WeightClass, model.Frequency, error) {
	if len(code) != 6 {
		return "", "", exception.NewConfigurationErrorf(moduleName, "weight code '%s' must be 6 characters", code)
	}
	class, err := Weight(code[:3])
	if err != nil {
		return "", "", err
	}
	freq, ok := frequencyCodes[strings.ToUpper(code[3:])]
	if !ok {
		return "", "", exception.NewConfigurationErrorf(moduleName, "unrecognized frequency code '%s' in '%s'", code[3:], code)
	}
	return class, freq, nil
}

// Jobs classifies every job and groups them by class. Input order is kept
// within each group. The first bad code aborts the call.
func Jobs(jobs []model.Job) (map[model.WeightClass][]model.Job, error) {
	classified := make(map[model.WeightClass][]model.Job, len(model.WeightOrder))
	for _, j := range jobs {
		class, _, err := Code(j.WeightCode)
		if err != nil {
			var ce *exception.CompileError
			if errors.As(err, &ce) {
				ce.Message = fmt.Sprintf("job '%s': %s", j.ID(), ce.Message)
			}
			return nil, err
		}
		j.Weight = class
		classified[class] = append(classified[class], j)
	}
	return classified, nil
}
