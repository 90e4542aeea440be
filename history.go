package git

import (
	"context"
	"sort"

	"github.com/brillcp/SwiftGit-sub000/plumbing/hash"
	"github.com/brillcp/SwiftGit-sub000/plumbing/object"
	"github.com/brillcp/SwiftGit-sub000/plumbing/ref"
)

// stashInternalHashes collects the commit hashes that belong to stash
// entries' internal bookkeeping (their index-state or untracked-files
// parents) rather than being real history commits.
func (r *Repository) stashInternalHashes() (map[hash.ID]bool, error) {
	stashes, err := r.GetStashes()
	if err != nil {
		return nil, err
	}

	internal := make(map[hash.ID]bool)
	for _, st := range stashes {
		commit, ok, err := r.GetCommit(st.ID)
		if err != nil || !ok {
			continue
		}
		if len(commit.ParentIDs) > 1 {
			internal[commit.ParentIDs[1]] = true
		}
		if len(commit.ParentIDs) > 2 {
			internal[commit.ParentIDs[2]] = true
		}
	}
	return internal, nil
}

func (r *Repository) seedHashes() ([]hash.ID, error) {
	refs, err := r.GetRefs()
	if err != nil {
		return nil, err
	}

	var seeds []hash.ID
	seen := make(map[hash.ID]bool)
	for _, rf := range refs {
		if rf.Type == ref.Stash {
			continue
		}
		if !seen[rf.Hash] {
			seen[rf.Hash] = true
			seeds = append(seeds, rf.Hash)
		}
	}

	stashes, err := r.GetStashes()
	if err != nil {
		return nil, err
	}
	for _, st := range stashes {
		if !seen[st.ID] {
			seen[st.ID] = true
			seeds = append(seeds, st.ID)
		}
	}

	if len(seeds) == 0 {
		if headID, ok, err := r.GetHead(); err == nil && ok {
			seeds = append(seeds, headID)
		}
	}

	return seeds, nil
}

// StreamAllCommits streams up to limit reachable commits, breadth-first
// with each commit's parents enqueued at the front of the work queue (so
// a parent is visited before a sibling further down the queue). Stash
// index-state and untracked-file bookkeeping commits are suppressed from
// the stream but their own parents are still traversed. The channel
// closes when limit commits have been visited, the graph is exhausted, or
// ctx is cancelled; suppressed stash commits and missing commits count
// toward limit even though they are not yielded.
func (r *Repository) StreamAllCommits(ctx context.Context, limit int) (<-chan *object.Commit, <-chan error) {
	out := make(chan *object.Commit)
	errc := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errc)

		seeds, err := r.seedHashes()
		if err != nil {
			errc <- err
			return
		}
		internal, err := r.stashInternalHashes()
		if err != nil {
			errc <- err
			return
		}

		queue := append([]hash.ID(nil), seeds...)
		visited := make(map[hash.ID]bool)

		for len(queue) > 0 && len(visited) < limit {
			id := queue[0]
			queue = queue[1:]
			if visited[id] {
				continue
			}
			visited[id] = true

			commit, ok, err := r.GetCommit(id)
			if err != nil {
				errc <- err
				return
			}
			if !ok {
				continue
			}

			if !internal[id] {
				select {
				case out <- commit:
				case <-ctx.Done():
					return
				}
			}

			var unvisitedParents []hash.ID
			for _, p := range commit.ParentIDs {
				if !visited[p] {
					unvisitedParents = append(unvisitedParents, p)
				}
			}
			queue = append(unvisitedParents, queue...)
		}
	}()

	return out, errc
}

// GetAllCommits drains StreamAllCommits and sorts the result by author
// timestamp ascending.
func (r *Repository) GetAllCommits(ctx context.Context, limit int) ([]*object.Commit, error) {
	out, errc := r.StreamAllCommits(ctx, limit)

	var commits []*object.Commit
	for c := range out {
		commits = append(commits, c)
	}
	if err := <-errc; err != nil {
		return nil, err
	}

	sort.Slice(commits, func(i, j int) bool {
		return commits[i].Author.Timestamp < commits[j].Author.Timestamp
	})
	return commits, nil
}
