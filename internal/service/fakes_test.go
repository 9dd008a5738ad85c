package service

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/and161185/voicenotes/internal/apiclient"
	"github.com/and161185/voicenotes/internal/model"
)

type reply struct {
	status int
	body   string
	err    error
}

// fakeAPI answers canned replies keyed by "METHOD path".
type fakeAPI struct {
	mu     sync.Mutex
	routes map[string]reply
	calls  []string
	bodies map[string]json.RawMessage

	tokens model.Tokens
	email  string
	setErr error
}

var _ AuthAPI = (*fakeAPI)(nil)

func newFakeAPI() *fakeAPI {
	return &fakeAPI{routes: map[string]reply{}, bodies: map[string]json.RawMessage{}}
}

func (f *fakeAPI) on(method, path string, status int, body string) *fakeAPI {
	f.mu.Lock()
	f.routes[method+" "+path] = reply{status: status, body: body}
	f.mu.Unlock()
	return f
}

func (f *fakeAPI) fail(method, path string, err error) *fakeAPI {
	f.mu.Lock()
	f.routes[method+" "+path] = reply{err: err}
	f.mu.Unlock()
	return f
}

func (f *fakeAPI) Do(_ context.Context, method, path string, body any) (*apiclient.Response, error) {
	key := method + " " + path
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, key)
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		f.bodies[key] = b
	}
	r, ok := f.routes[key]
	if !ok {
		r = reply{status: 404, body: `{"error":"no route"}`}
	}
	if r.err != nil {
		return nil, r.err
	}
	return &apiclient.Response{
		StatusCode: r.status,
		Body:       []byte(r.body),
		Envelope:   apiclient.Normalize([]byte(r.body)),
	}, nil
}

func (f *fakeAPI) count(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == method+" "+path {
			n++
		}
	}
	return n
}

func (f *fakeAPI) sent(method, path string) json.RawMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[method+" "+path]
}

func (f *fakeAPI) SetTokens(_ context.Context, t model.Tokens, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = t
	if email != "" {
		f.email = email
	}
	return f.setErr
}

func (f *fakeAPI) ClearTokens(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = model.Tokens{}
	f.email = ""
	return nil
}

func (f *fakeAPI) Tokens() (model.Tokens, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokens, !f.tokens.Empty()
}
