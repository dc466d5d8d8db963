package test

import (
	"fmt"

	model "github.com/tigerroll/surfin-flow/pkg/ingest/core/domain/model"
)

// NewJob creates a job in database "db", environment "dev".
func NewJob(table, weightCode string) model.Job {
	return model.Job{Database: "db", Table: table, Environment: "dev", WeightCode: weightCode}
}

// NewIncrementalJob creates a job with a check column and dialect.
func NewIncrementalJob(table, weightCode, checkColumn string, dialect model.Dialect) model.Job {
	j := NewJob(table, weightCode)
	j.CheckColumn = checkColumn
	j.Dialect = dialect
	return j
}

// MixedJobs returns light l1..l<light>, medium m1..m<medium> and heavy
// h1..h<heavy>, in that order.
func MixedJobs(light, medium, heavy int) []model.Job {
	var jobs []model.Job
	for i := 1; i <= light; i++ {
		jobs = append(jobs, NewJob(fmt.Sprintf("l%d", i), "LGTDLY"))
	}
	for i := 1; i <= medium; i++ {
		jobs = append(jobs, NewJob(fmt.Sprintf("m%d", i), "MEDDLY"))
	}
	for i := 1; i <= heavy; i++ {
		jobs = append(jobs, NewJob(fmt.Sprintf("h%d", i), "HVYDLY"))
	}
	return jobs
}
