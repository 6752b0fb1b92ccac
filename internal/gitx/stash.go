package gitx

import "context"

// StashOptions controls WithStash behavior.
type StashOptions struct {
	IncludeUntracked bool
	Message          string // stash entry title, used to find it again for dropping
	Keep             bool   // keep the stash entry even after a clean pop
}

// WithStash stashes the working tree, runs fn, then pops the stash. After
// a clean pop the entry is dropped unless Keep is set; a pop that leaves
// merge conflicts always keeps the entry so nothing is lost. Reports
// whether the stash entry was kept.
func (r *Repo) WithStash(ctx context.Context, opts StashOptions, fn func() error) (kept bool, err error) {
	if r.DryRun {
		r.preview("stash", "push", "-m", opts.Message)
		if err := fn(); err != nil {
			return false, err
		}
		r.preview("stash", "pop")
		return false, nil
	}

	pushArgs := []string{"stash", "push"}
	if opts.IncludeUntracked {
		pushArgs = append(pushArgs, "--include-untracked")
	} else {
		pushArgs = append(pushArgs, "--keep-index")
	}
	pushArgs = append(pushArgs, "-m", opts.Message)
	if _, err := r.run(ctx, pushArgs...); err != nil {
		return false, err
	}

	fnErr := fn()

	if opts.Keep {
		// Apply instead of pop so the entry survives a clean restore.
		if _, err := r.run(ctx, "stash", "apply"); err != nil {
			if fnErr != nil {
				return true, fnErr
			}
			return true, err
		}
		return true, fnErr
	}

	if _, err := r.run(ctx, "stash", "pop"); err != nil {
		// A conflicted pop leaves the entry in place so nothing is lost.
		if fnErr != nil {
			return true, fnErr
		}
		return true, err
	}
	return false, fnErr
}
