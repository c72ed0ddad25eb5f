// Package hifz models a Quran memorization (Hifz) programme.
//
// The curriculum is 30 paras, 9664 lines in all. Each day the teacher records
// for a learner:
//
//   - attendance (PRESENT, ABSENT, LATE, EXCUSED);
//   - the new lesson (sabaq): lines and mistakes;
//   - recent revision (sabqi) and older revision (manzil): mistakes only.
//
// # Building blocks
//
//   - CalculateCompletion: memorized share, tolerant of overlapping unit lists
//   - DeriveCondition: the day's rating from its mistake counts
//   - LearnerStatus.ApplyProgress: the para completion state machine
//   - RecomputeStatus: rebuilds the aggregate from the full history
//   - Estimate: projected completion date
//   - ComputeAnalytics, GenerateAlerts: window analytics and recommendations
//   - EvaluateWeek: Sunday to Saturday performance flags
//
// Everything here is synchronous and free of I/O. Storage and notification
// sit behind repository.go and shared.EventPublisher.
//
//	result, err := hifz.Ingest(*status, submission, time.Now())
//	if err != nil {
//	    return err // ValidationError
//	}
//	// persist result.Record, then rebuild the status from history
//	next := hifz.RecomputeStatus(result.Status, history, time.Now())
//	for _, event := range result.Events {
//	    eventBus.Publish(event)
//	}
package hifz
