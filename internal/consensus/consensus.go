// Package consensus computes unanimous matches and voting progress for a
// room. It is a pure function of the current participant set, the candidate
// list and the vote ledger; results are recomputed on every call and never
// cached, so they cannot drift under membership churn.
package consensus

import (
	"github.com/abhikumar45444/movie-night-decider/internal/domain"
)

type Result struct {
	Matches  []domain.Movie
	Progress domain.Progress
}

// Compute evaluates the unanimity predicate over every candidate: a movie
// matches iff every current participant has an explicit YES vote for it.
// A missing vote never counts as YES. Votes cast by users who are no longer
// participants are ignored. With zero participants the match set is empty.
//
// Matches keep candidate-list order, not vote order.
func Compute(participants []domain.Participant, movies []domain.Movie, votes []domain.Vote) Result {
	progress := domain.Progress{
		TotalMovies:  len(movies),
		Participants: len(participants),
	}

	matches := make([]domain.Movie, 0)
	if len(participants) == 0 || len(movies) == 0 {
		return Result{Matches: matches, Progress: progress}
	}

	current := make(map[string]struct{}, len(participants))
	for _, p := range participants {
		current[p.UserID] = struct{}{}
	}

	yesByMovie := make(map[int64]map[string]struct{})
	for _, v := range votes {
		if !v.Yes {
			continue
		}
		if _, ok := current[v.UserID]; !ok {
			continue
		}
		set, ok := yesByMovie[v.MovieID]
		if !ok {
			set = make(map[string]struct{}, len(current))
			yesByMovie[v.MovieID] = set
		}
		set[v.UserID] = struct{}{}
	}

	for _, m := range movies {
		if len(yesByMovie[m.ID]) == len(current) {
			matches = append(matches, m)
		}
	}

	progress.MoviesWithAllVotes = len(matches)
	return Result{Matches: matches, Progress: progress}
}
