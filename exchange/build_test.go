package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/HexmosTech/openai-go/endpoint"
	"github.com/HexmosTech/openai-go/formdata"
	"github.com/HexmosTech/openai-go/request"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func defaultTarget() *Target {
	return &Target{
		Authorization: request.Bearer("sk-test"),
		BaseURL:       "https://api.openai.com",
		Version:       "v1",
	}
}

func makeHeader(pairs ...string) http.Header {
	h := make(http.Header)
	for i := 0; i+1 < len(pairs); i += 2 {
		h.Set(pairs[i], pairs[i+1])
	}
	return h
}

func isEquivalentJSON(t *testing.T, json1, json2 string) bool {
	var obj1, obj2 interface{}
	if err := json.Unmarshal([]byte(json1), &obj1); err != nil {
		t.Fatalf("failed to unmarshal json1: %v", err)
	}
	if err := json.Unmarshal([]byte(json2), &obj2); err != nil {
		t.Fatalf("failed to unmarshal json2: %v", err)
	}
	return reflect.DeepEqual(obj1, obj2)
}

func TestBuildJSONRequest_DefaultHost(t *testing.T) {
	// Setup
	ep := endpoint.Must(endpoint.ChatCompletions)
	call := &JSONCall{
		Method: request.MethodPost,
		Params: map[string]interface{}{
			"model":    "gpt-4o",
			"messages": []map[string]string{{"role": "user", "content": "hi"}},
		},
	}

	// Exercise
	actual, err := BuildJSONRequest(ep, defaultTarget(), call)
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}

	// Verify
	if actual.Method != request.MethodPost {
		t.Errorf("unexpected method: expected=%v, actual=%v", request.MethodPost, actual.Method)
	}
	expectedURL := "https://api.openai.com/v1/chat/completions"
	if actual.URL.String() != expectedURL {
		t.Errorf("unexpected URL: expected=%s, actual=%s", expectedURL, actual.URL)
	}
	expectedHeader := makeHeader(
		"Content-Type", "application/json",
		"Authorization", "Bearer sk-test",
	)
	if !reflect.DeepEqual(expectedHeader, actual.Header) {
		t.Errorf("unexpected header: expected=%v, actual=%v", expectedHeader, actual.Header)
	}
	expectedBody := `{"model": "gpt-4o", "messages": [{"role": "user", "content": "hi"}]}`
	if !isEquivalentJSON(t, expectedBody, string(actual.Body)) {
		t.Errorf("unexpected body: expected=%s, actual=%s", expectedBody, actual.Body)
	}
}

func TestBuildJSONRequest_OverrideHostWithProxy(t *testing.T) {
	// Setup
	target := &Target{
		Authorization: request.Bearer("gsk-1"),
		BaseURL:       "https://api.groq.com",
		Version:       "v1",
		ProxyPath:     "openai",
	}
	call := &JSONCall{Method: request.MethodPost, Params: map[string]string{"model": "llama3"}}

	// Exercise
	actual, err := BuildJSONRequest(endpoint.Must(endpoint.ChatCompletions), target, call)
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}

	// Verify
	assert.Equal(t, "https://api.groq.com/openai/v1/chat/completions", actual.URL.String())
	assert.Equal(t, "Bearer gsk-1", actual.Header.Get("Authorization"))
	assert.False(t, strings.HasPrefix(actual.URL.Path, "/v1/"))
}

func TestBuildJSONRequest_Headers(t *testing.T) {
	testCases := []struct {
		title    string
		target   *Target
		call     *JSONCall
		expected http.Header
	}{
		{
			title: "Organization and beta",
			target: &Target{
				Authorization:  request.Bearer("sk-1"),
				BaseURL:        "https://api.openai.com",
				Version:        "v1",
				OrganizationID: "org-42",
			},
			call: &JSONCall{Method: request.MethodGet, Beta: "assistants=v2"},
			expected: makeHeader(
				"Content-Type", "application/json",
				"Authorization", "Bearer sk-1",
				"OpenAI-Organization", "org-42",
				"OpenAI-Beta", "assistants=v2",
			),
		},
		{
			title:  "Extra header overrides beta",
			target: defaultTarget(),
			call: &JSONCall{
				Method:       request.MethodGet,
				Beta:         "assistants=v1",
				ExtraHeaders: map[string]string{"OpenAI-Beta": "assistants=v2"},
			},
			expected: makeHeader(
				"Content-Type", "application/json",
				"Authorization", "Bearer sk-test",
				"OpenAI-Beta", "assistants=v2",
			),
		},
		{
			title:  "Extra header overrides content type",
			target: defaultTarget(),
			call: &JSONCall{
				Method:       request.MethodPost,
				ExtraHeaders: map[string]string{"content-type": "application/json; charset=utf-8", "X-Trace": "abc"},
			},
			expected: makeHeader(
				"Content-Type", "application/json; charset=utf-8",
				"Authorization", "Bearer sk-test",
				"X-Trace", "abc",
			),
		},
		{
			title: "Vendor key header",
			target: &Target{
				Authorization: request.APIKey("azure-key"),
				BaseURL:       "https://example.openai.azure.com",
				Version:       "v1",
			},
			call: &JSONCall{Method: request.MethodDelete},
			expected: makeHeader(
				"Content-Type", "application/json",
				"api-key", "azure-key",
			),
		},
	}
	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			actual, err := BuildJSONRequest(endpoint.Must(endpoint.Models), tt.target, tt.call)
			if err != nil {
				t.Fatalf("unexpected error: err=%+v", err)
			}
			if !reflect.DeepEqual(tt.expected, actual.Header) {
				t.Errorf("unexpected header: expected=%v, actual=%v", tt.expected, actual.Header)
			}
		})
	}
}

type chatParams struct {
	Model string `json:"model"`
}

func TestBuildJSONRequest_NilParamsHasNoBody(t *testing.T) {
	testCases := []struct {
		title  string
		params interface{}
	}{
		{title: "Untyped nil", params: nil},
		{title: "Nil struct pointer", params: (*chatParams)(nil)},
		{title: "Nil map", params: map[string]interface{}(nil)},
		{title: "Nil slice", params: []string(nil)},
	}
	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			// Exercise
			actual, err := BuildJSONRequest(endpoint.Must(endpoint.Models), defaultTarget(), &JSONCall{
				Method: request.MethodGet,
				Params: tt.params,
			})

			// Verify
			require.NoError(t, err)
			assert.Nil(t, actual.Body)
			assert.Equal(t, "application/json", actual.ContentType())
		})
	}
}

func TestBuildJSONRequest_EmptyParamsHaveBody(t *testing.T) {
	actual, err := BuildJSONRequest(endpoint.Must(endpoint.Models), defaultTarget(), &JSONCall{
		Method: request.MethodPost,
		Params: map[string]interface{}{},
	})
	require.NoError(t, err)
	assert.Equal(t, "{}", string(actual.Body))
}

func TestBuildJSONRequest_Query(t *testing.T) {
	// Setup
	call := &JSONCall{
		Method: request.MethodGet,
		Query: []request.QueryItem{
			{Name: "limit", Value: "10"},
			{Name: "after", Value: "file abc"},
		},
	}

	// Exercise
	withQuery, err := BuildJSONRequest(endpoint.Must(endpoint.Files), defaultTarget(), call)
	require.NoError(t, err)
	withoutQuery, err := BuildJSONRequest(endpoint.Must(endpoint.Files), defaultTarget(), &JSONCall{Method: request.MethodGet})
	require.NoError(t, err)

	// Verify
	assert.Equal(t, "https://api.openai.com/v1/files?limit=10&after=file+abc", withQuery.URL.String())
	assert.Equal(t, "https://api.openai.com/v1/files", withoutQuery.URL.String())
}

type failingParams struct{}

func (failingParams) MarshalJSON() ([]byte, error) {
	return nil, errors.New("cannot marshal")
}

func TestBuildJSONRequest_Errors(t *testing.T) {
	testCases := []struct {
		title           string
		target          *Target
		call            *JSONCall
		isConfiguration bool
		isEncoding      bool
	}{
		{
			title:           "Missing credential",
			target:          &Target{BaseURL: "https://api.openai.com", Version: "v1"},
			call:            &JSONCall{Method: request.MethodGet},
			isConfiguration: true,
		},
		{
			title:           "Empty bearer token",
			target:          &Target{Authorization: request.Bearer(""), BaseURL: "https://api.openai.com", Version: "v1"},
			call:            &JSONCall{Method: request.MethodGet},
			isConfiguration: true,
		},
		{
			title:           "Base URL without scheme",
			target:          &Target{Authorization: request.Bearer("sk"), BaseURL: "api.openai.com", Version: "v1"},
			call:            &JSONCall{Method: request.MethodGet},
			isConfiguration: true,
		},
		{
			title:           "Unparsable base URL",
			target:          &Target{Authorization: request.Bearer("sk"), BaseURL: "http://[::1", Version: "v1"},
			call:            &JSONCall{Method: request.MethodGet},
			isConfiguration: true,
		},
		{
			title:           "Unsupported method",
			target:          defaultTarget(),
			call:            &JSONCall{Method: request.Method("PATCH")},
			isConfiguration: true,
		},
		{
			title:           "Invalid extra header name",
			target:          defaultTarget(),
			call:            &JSONCall{Method: request.MethodGet, ExtraHeaders: map[string]string{"Bad Header": "x"}},
			isConfiguration: true,
		},
		{
			title:           "Extra header name given twice in different case",
			target:          defaultTarget(),
			call:            &JSONCall{Method: request.MethodGet, ExtraHeaders: map[string]string{"x-foo": "a", "X-Foo": "b"}},
			isConfiguration: true,
		},
		{
			title:           "Invalid extra header value",
			target:          defaultTarget(),
			call:            &JSONCall{Method: request.MethodGet, ExtraHeaders: map[string]string{"X-Ok": "a\r\nb"}},
			isConfiguration: true,
		},
		{
			title:      "Params fail to marshal",
			target:     defaultTarget(),
			call:       &JSONCall{Method: request.MethodPost, Params: failingParams{}},
			isEncoding: true,
		},
	}
	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			_, err := BuildJSONRequest(endpoint.Must(endpoint.ChatCompletions), tt.target, tt.call)
			if err == nil {
				t.Fatalf("expected an error")
			}
			assert.Equal(t, tt.isConfiguration, IsConfigurationError(err), err.Error())
			assert.Equal(t, tt.isEncoding, IsEncodingError(err), err.Error())
		})
	}
}

func TestBuildJSONRequest_Idempotent(t *testing.T) {
	call := &JSONCall{
		Method:       request.MethodPost,
		Params:       map[string]int{"n": 2},
		Query:        []request.QueryItem{{Name: "a", Value: "b"}},
		ExtraHeaders: map[string]string{"X-B": "2", "X-A": "1"},
	}
	first, err := BuildJSONRequest(endpoint.Must(endpoint.Embeddings), defaultTarget(), call)
	require.NoError(t, err)
	second, err := BuildJSONRequest(endpoint.Must(endpoint.Embeddings), defaultTarget(), call)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBuildURL(t *testing.T) {
	testCases := []struct {
		title         string
		baseURL       string
		ep            endpoint.Endpoint
		query         []request.QueryItem
		expected      string
		shouldBeError bool
	}{
		{
			title:    "Base path and query are replaced",
			baseURL:  "https://api.openai.com/ignored?x=1#frag",
			ep:       endpoint.Must(endpoint.Models),
			expected: "https://api.openai.com/v1/models",
		},
		{
			title:    "Port is kept",
			baseURL:  "http://localhost:8080",
			ep:       endpoint.Must(endpoint.Models),
			expected: "http://localhost:8080/v1/models",
		},
		{
			title:    "Leading slash is enforced",
			baseURL:  "https://api.openai.com",
			ep:       endpoint.Func(func(version, proxyPath string) string { return version + "/models" }),
			expected: "https://api.openai.com/v1/models",
		},
		{
			title:    "Duplicate slashes are collapsed",
			baseURL:  "https://api.openai.com",
			ep:       endpoint.Func(func(version, proxyPath string) string { return "//" + version + "//models/" }),
			expected: "https://api.openai.com/v1/models/",
		},
		{
			title:    "Escaped parameter survives",
			baseURL:  "https://api.openai.com",
			ep:       endpoint.Must(endpoint.Model, "ft:gpt/4o mini"),
			expected: "https://api.openai.com/v1/models/ft:gpt%2F4o%20mini",
		},
		{
			title:    "Query order is kept",
			baseURL:  "https://api.openai.com",
			ep:       endpoint.Must(endpoint.FineTuningJobEvents, "ftjob-1"),
			query:    []request.QueryItem{{Name: "z", Value: "1"}, {Name: "a", Value: "2"}},
			expected: "https://api.openai.com/v1/fine_tuning/jobs/ftjob-1/events?z=1&a=2",
		},
		{
			title:         "Endpoint path with a query",
			baseURL:       "https://api.openai.com",
			ep:            endpoint.Func(func(version, proxyPath string) string { return "/v1/models?x=1" }),
			shouldBeError: true,
		},
		{
			title:         "Endpoint path with a bad escape",
			baseURL:       "https://api.openai.com",
			ep:            endpoint.Raw("bad%zzpath"),
			shouldBeError: true,
		},
		{
			title:         "Relative base URL",
			baseURL:       "/v1",
			ep:            endpoint.Must(endpoint.Models),
			shouldBeError: true,
		},
	}
	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			target := &Target{BaseURL: tt.baseURL, Version: "v1"}
			u, err := buildURL(tt.ep, target, tt.query)
			if (err != nil) != tt.shouldBeError {
				t.Fatalf("unexpected error: shouldBeError=%v, err=%v", tt.shouldBeError, err)
			}
			if err != nil {
				if !IsConfigurationError(err) {
					t.Errorf("expected a configuration error, got %v", err)
				}
				return
			}
			if u.String() != tt.expected {
				t.Errorf("unexpected URL: expected=%s, actual=%s", tt.expected, u)
			}
		})
	}
}

func TestProperty_ExtraHeadersWin(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		name := rapid.SampledFrom([]string{
			"Content-Type", "content-type", "Authorization", "OpenAI-Organization", "OpenAI-Beta", "X-Custom",
		}).Draw(rt, "name")
		value := rapid.StringMatching(`[a-zA-Z0-9=;/ -]{1,20}`).Draw(rt, "value")
		target := defaultTarget()
		target.OrganizationID = "org-1"

		spec, err := BuildJSONRequest(endpoint.Must(endpoint.Assistants), target, &JSONCall{
			Method:       request.MethodPost,
			Beta:         "assistants=v2",
			ExtraHeaders: map[string]string{name: value},
		})
		require.NoError(rt, err)

		assert.Equal(rt, []string{value}, spec.Header.Values(name))
	})
}

func fixedBoundary(t *testing.T, b string) {
	orig := newBoundary
	newBoundary = func() string { return b }
	t.Cleanup(func() { newBoundary = orig })
}

func TestBuildMultipartRequest(t *testing.T) {
	// Setup
	fixedBoundary(t, "test-boundary")
	target := defaultTarget()
	target.OrganizationID = "org-9"
	call := &MultipartCall{
		Method: request.MethodPost,
		Params: formdata.Parameters{
			formdata.Field("purpose", "fine-tune"),
			formdata.File("file", "train.jsonl", "application/jsonl", []byte(`{"prompt":"x"}`)),
		},
		Query: []request.QueryItem{{Name: "dry", Value: "1"}},
	}

	// Exercise
	actual, err := BuildMultipartRequest(endpoint.Must(endpoint.Files), target, call)
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}

	// Verify
	assert.Equal(t, "https://api.openai.com/v1/files?dry=1", actual.URL.String())
	expectedHeader := makeHeader(
		"Authorization", "Bearer sk-test",
		"OpenAI-Organization", "org-9",
		"Content-Type", "multipart/form-data; boundary=test-boundary",
	)
	assert.Equal(t, expectedHeader, actual.Header)
	expectedBody := strings.Join([]string{
		`--test-boundary`,
		`Content-Disposition: form-data; name="purpose"`,
		``,
		`fine-tune`,
		`--test-boundary`,
		`Content-Disposition: form-data; name="file"; filename="train.jsonl"`,
		`Content-Type: application/jsonl`,
		``,
		`{"prompt":"x"}`,
		`--test-boundary--`,
		``,
	}, "\r\n")
	assert.Equal(t, expectedBody, string(actual.Body))
}

func TestBuildMultipartRequest_BoundaryMatchesBody(t *testing.T) {
	// Setup
	call := &MultipartCall{
		Method: request.MethodPost,
		Params: formdata.Parameters{
			formdata.Field("model", "whisper-1"),
			formdata.File("file", "a.mp3", "audio/mpeg", []byte("ID3...")),
		},
	}

	// Exercise
	spec, err := BuildMultipartRequest(endpoint.Must(endpoint.AudioTranscriptions), defaultTarget(), call)
	require.NoError(t, err)

	// Verify
	mediaType, params, err := mime.ParseMediaType(spec.ContentType())
	require.NoError(t, err)
	assert.Equal(t, "multipart/form-data", mediaType)
	boundary := params["boundary"]
	require.NotEmpty(t, boundary)
	assert.Equal(t, 3, bytes.Count(spec.Body, []byte("--"+boundary)))
	assert.True(t, bytes.HasSuffix(spec.Body, []byte("--"+boundary+"--\r\n")))

	reader := multipart.NewReader(bytes.NewReader(spec.Body), boundary)
	var names []string
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		names = append(names, part.FormName())
	}
	assert.Equal(t, []string{"model", "file"}, names)
}

func TestBuildMultipartRequest_IdempotentModuloBoundary(t *testing.T) {
	call := &MultipartCall{
		Method: request.MethodPost,
		Params: formdata.Parameters{formdata.Field("purpose", "batch")},
	}
	first, err := BuildMultipartRequest(endpoint.Must(endpoint.Files), defaultTarget(), call)
	require.NoError(t, err)
	second, err := BuildMultipartRequest(endpoint.Must(endpoint.Files), defaultTarget(), call)
	require.NoError(t, err)

	_, p1, err := mime.ParseMediaType(first.ContentType())
	require.NoError(t, err)
	_, p2, err := mime.ParseMediaType(second.ContentType())
	require.NoError(t, err)
	assert.NotEqual(t, p1["boundary"], p2["boundary"])

	normalized := bytes.ReplaceAll(second.Body, []byte(p2["boundary"]), []byte(p1["boundary"]))
	assert.Equal(t, first.Body, normalized)
	assert.Equal(t, first.URL, second.URL)
	assert.Equal(t, first.Header.Get("Authorization"), second.Header.Get("Authorization"))
}

func TestBuildMultipartRequest_FileWithoutFilename(t *testing.T) {
	// Setup
	fixedBoundary(t, "test-boundary")

	// Exercise
	spec, err := BuildMultipartRequest(endpoint.Must(endpoint.AudioTranscriptions), defaultTarget(), &MultipartCall{
		Method: request.MethodPost,
		Params: formdata.Parameters{formdata.File("file", "", "audio/mpeg", []byte("AUDIOBYTES"))},
	})

	// Verify
	require.NoError(t, err)
	expected := "--test-boundary\r\n" +
		"Content-Disposition: form-data; name=\"file\"; filename=\"file\"\r\n" +
		"Content-Type: audio/mpeg\r\n" +
		"\r\n" +
		"AUDIOBYTES\r\n" +
		"--test-boundary--\r\n"
	assert.Equal(t, expected, string(spec.Body))
}

func TestBuildMultipartRequest_Errors(t *testing.T) {
	_, err := BuildMultipartRequest(endpoint.Must(endpoint.Files), defaultTarget(), &MultipartCall{
		Method: request.MethodPost,
		Params: formdata.Parameters{formdata.FileFromPath("file", "/nonexistent/train.jsonl", "")},
	})
	assert.True(t, IsEncodingError(err), "%v", err)

	_, err = BuildMultipartRequest(endpoint.Must(endpoint.Files), &Target{BaseURL: "https://api.openai.com"}, &MultipartCall{
		Method: request.MethodPost,
	})
	assert.True(t, IsConfigurationError(err), "%v", err)
}

func TestBuildMultipartRequest_ServerParsesForm(t *testing.T) {
	// Setup
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images/edits", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Equal(t, "a cat", r.FormValue("prompt"))
		f, header, err := r.FormFile("image")
		if assert.NoError(t, err) {
			defer f.Close()
			data, _ := io.ReadAll(f)
			assert.Equal(t, "cat.png", header.Filename)
			assert.Equal(t, "PNG", string(data))
		}
		_, _ = w.Write([]byte(`{"created":1}`))
	}))
	defer server.Close()

	target := defaultTarget()
	target.BaseURL = server.URL
	spec, err := BuildMultipartRequest(endpoint.Must(endpoint.ImageEdits), target, &MultipartCall{
		Method: request.MethodPost,
		Params: formdata.Parameters{
			formdata.Field("prompt", "a cat"),
			formdata.File("image", "cat.png", "image/png", []byte("PNG")),
		},
	})
	require.NoError(t, err)

	// Exercise
	resp, err := request.Send(context.Background(), server.Client(), spec)

	// Verify
	require.NoError(t, err)
	var out struct {
		Created int `json:"created"`
	}
	require.NoError(t, request.Decode(resp, &out, request.DecoderOptions{}))
	assert.Equal(t, 1, out.Created)
}
