package util

import "errors"

// Expected, user-facing outcomes. Every one of these maps to a stable
// message and a 4xx status; anything else is a server fault and stays
// internal.
var (
	ErrAuthRequired     = errors.New("authentication required")
	ErrBadCredentials   = errors.New("Incorrect username or password.")
	ErrUsernameTaken    = errors.New("That username is taken.")
	ErrTeamNameTaken    = errors.New("That team name is taken.")
	ErrAlreadyOnTeam    = errors.New("You are already a member of a team.")
	ErrNoSuchUser       = errors.New("There is no user with that name.")
	ErrAlreadyMember    = errors.New("That user is already a member of this team.")
	ErrAlreadyInvited   = errors.New("That user has already been invited.")
	ErrNotInvited       = errors.New("You have not been invited to this team.")
	ErrNoTeam           = errors.New("You must be part of a team.")
	ErrNotFound         = errors.New("not found")
	ErrIncorrectFlag    = errors.New("Sorry, the flag you entered is not correct.")
	ErrAlreadySolved    = errors.New("You've already entered that flag.")
	ErrPrereqsNotMet    = errors.New("You must complete all previous challenges first!")
	ErrCompetitionEnded = errors.New("The competition has ended, sorry.")

	// ErrDecoyFlag marks the reserved honeypot flag. Not an error the
	// client ever sees as text: the handler answers with a redirect.
	ErrDecoyFlag = errors.New("decoy flag submitted")
)
