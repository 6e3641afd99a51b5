package nhslogin

import (
	"sync"
	"testing"
)

func TestParseRedirectParams(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want map[string]string
	}{
		{
			name: "query",
			url:  "https://cb.example/code?code=abc&state=xyz",
			want: map[string]string{"code": "abc", "state": "xyz"},
		},
		{
			name: "fragment",
			url:  "app://callback#token=1&code=frag",
			want: map[string]string{"code": "frag"},
		},
		{
			name: "query and fragment",
			url:  "app://callback?code=q#x&code=f",
			want: map[string]string{"code": "f"},
		},
		{
			name: "last duplicate wins",
			url:  "app://cb?code=one&code=two",
			want: map[string]string{"code": "two"},
		},
		{
			name: "values not decoded",
			url:  "app://cb?code=a%2Fb",
			want: map[string]string{"code": "a%2Fb"},
		},
		{
			name: "empty value",
			url:  "app://cb?code=&state=s",
			want: map[string]string{"code": "", "state": "s"},
		},
		{
			name: "no params",
			url:  "app://cb",
			want: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseRedirectParams(tt.url)
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("params[%s] = %q, want %q", k, got[k], v)
				}
			}
			if tt.name == "no params" && len(got) != 0 {
				t.Errorf("params = %v, want none", got)
			}
		})
	}
}

func TestCodeGuard(t *testing.T) {
	var g codeGuard

	steps := []struct {
		code string
		want bool
	}{
		{"", false},
		{"undefined", false},
		{"c1", true},
		{"c1", false},
		{"c2", true},
		{"c1", true},
	}

	for i, s := range steps {
		if got := g.accept(s.code); got != s.want {
			t.Errorf("step %d: accept(%q) = %v, want %v", i, s.code, got, s.want)
		}
	}
}

func TestCodeGuard_ConcurrentSameCode(t *testing.T) {
	var g codeGuard
	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.accept("same") {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if accepted != 1 {
		t.Errorf("accepted = %d, want 1", accepted)
	}
}

func TestCallbackState_String(t *testing.T) {
	if CallbackFailed.String() != "failed" {
		t.Errorf("CallbackFailed.String() = %s", CallbackFailed.String())
	}
	if CallbackState(99).String() != "unknown" {
		t.Errorf("CallbackState(99).String() = %s", CallbackState(99).String())
	}
}
