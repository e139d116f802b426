package github

// PRFile is one changed file in a pull request.
type PRFile struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Patch     string `json:"patch"`
}

// pullRequest carries the fields we read from the pull detail endpoint.
type pullRequest struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Head   struct {
		SHA string `json:"sha"`
	} `json:"head"`
}

// ReviewEvent is the verdict attached to a posted review.
type ReviewEvent string

const (
	// EventComment leaves feedback without blocking the PR.
	EventComment ReviewEvent = "COMMENT"
	// EventRequestChanges blocks the PR until addressed.
	EventRequestChanges ReviewEvent = "REQUEST_CHANGES"
)

// ReviewComment is one inline comment in a review, anchored by diff position.
type ReviewComment struct {
	Path     string `json:"path"`
	Position int    `json:"position"`
	Body     string `json:"body"`
}

// createReviewRequest is the POST body for the reviews endpoint.
type createReviewRequest struct {
	CommitID string          `json:"commit_id,omitempty"`
	Body     string          `json:"body"`
	Event    ReviewEvent     `json:"event"`
	Comments []ReviewComment `json:"comments,omitempty"`
}

// CreateReviewResponse is the posted review as GitHub reports it back.
type CreateReviewResponse struct {
	ID    int64  `json:"id"`
	State string `json:"state"`
	Body  string `json:"body"`
}

// issueComment is the POST body for a plain PR conversation comment.
type issueComment struct {
	Body string `json:"body"`
}

// apiError is GitHub's error reply shape.
type apiError struct {
	Message string `json:"message"`
}
