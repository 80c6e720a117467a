package bitbucket

// Wire types for the Bitbucket Cloud 2.0 API. List endpoints share the
// values/next pagination envelope.

type pagedResponse[T any] struct {
	Values  []T    `json:"values"`
	Next    string `json:"next"`
	Page    int    `json:"page"`
	Pagelen int    `json:"pagelen"`
	Size    int    `json:"size"`
}

type wireAccount struct {
	AccountID   string `json:"account_id"`
	DisplayName string `json:"display_name"`
	Nickname    string `json:"nickname"`
	Links       struct {
		Avatar struct {
			Href string `json:"href"`
		} `json:"avatar"`
	} `json:"links"`
}

type wireRendered struct {
	Raw  string `json:"raw"`
	HTML string `json:"html"`
}

type wireInline struct {
	Path string `json:"path"`
	From *int   `json:"from,omitempty"`
	To   *int   `json:"to,omitempty"`
}

type wireComment struct {
	ID        int           `json:"id"`
	Content   wireRendered  `json:"content"`
	User      wireAccount   `json:"user"`
	CreatedOn string        `json:"created_on"`
	UpdatedOn string        `json:"updated_on"`
	Deleted   bool          `json:"deleted"`
	Parent    *struct {
		ID int `json:"id"`
	} `json:"parent,omitempty"`
	Inline *wireInline `json:"inline,omitempty"`
}

type wireTask struct {
	ID        int          `json:"id"`
	State     string       `json:"state"` // "RESOLVED" or "UNRESOLVED".
	Content   wireRendered `json:"content"`
	CreatedOn string       `json:"created_on"`
	UpdatedOn string       `json:"updated_on"`
	Comment   *struct {
		ID int `json:"id"`
	} `json:"comment,omitempty"`
}

type wireDiffStat struct {
	Status       string `json:"status"`
	LinesAdded   int    `json:"lines_added"`
	LinesRemoved int    `json:"lines_removed"`
	Old          *struct {
		Path string `json:"path"`
	} `json:"old,omitempty"`
	New *struct {
		Path string `json:"path"`
	} `json:"new,omitempty"`
}

// Request bodies.

type commentBody struct {
	Content contentBody `json:"content"`
	Parent  *idRef      `json:"parent,omitempty"`
	Inline  *wireInline `json:"inline,omitempty"`
}

type taskBody struct {
	Content contentBody `json:"content"`
	Comment *idRef      `json:"comment,omitempty"`
	State   string      `json:"state,omitempty"`
}

type contentBody struct {
	Raw string `json:"raw"`
}

type idRef struct {
	ID int `json:"id"`
}
