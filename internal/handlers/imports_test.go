package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/importusers/import-service/config"
	"github.com/importusers/import-service/internal/importer"
	"github.com/importusers/import-service/internal/password"
	"github.com/importusers/import-service/internal/storage"
	"github.com/importusers/import-service/internal/store"
)

const classFormat = `<importusersfile type="users">
  <sheets type="data">
    <sheet>
      <rows type="data">
        <row start="1" end="1">
          <cells type="meta"><cell><item>Username</item><item>Course</item></cell></cells>
        </row>
        <row start="2">
          <cells type="data"><cell><item>username</item><item>course</item></cell></cells>
        </row>
      </rows>
    </sheet>
  </sheets>
  <fields table="user">
    <field><name>username</name><value>username</value></field>
  </fields>
  <fields table="course">
    <field><name>shortname</name><value>course</value></field>
  </fields>
</importusersfile>`

const classCSV = "Username,Course\ncarol,HIST2\ndave,HIST2\n"

type testServer struct {
	router  *gin.Engine
	store   *store.Memory
	storage storage.Storage
}

func newTestServer(t *testing.T, maxUpload int64) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := store.NewMemory()
	require.NoError(t, s.InsertCourse(context.Background(), &store.Course{ShortName: "HIST2", FullName: "History"}))
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	imp := importer.New(s, nil,
		importer.WithDefaults(config.ImportConfig{PreviewRows: 10}),
		importer.WithStorage(files),
		importer.WithHasher(password.NewHasher(password.Params{Time: 1, Memory: 1024, Threads: 1, KeyLen: 16, SaltLen: 8})),
	)
	h := NewImportHandler(imp, files, maxUpload, nil)

	router := gin.New()
	router.POST("/internal/imports", h.CreateImport)
	router.GET("/health", HealthCheck("memory"))
	return &testServer{router: router, store: s, storage: files}
}

func multipartBody(t *testing.T, files map[string]string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for field, content := range files {
		name := "class.csv"
		if field == FormatFileField {
			name = "class.xml"
		}
		part, err := w.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func (ts *testServer) post(t *testing.T, files, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, files, fields)
	req := httptest.NewRequest(http.MethodPost, "/internal/imports", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func TestCreateImport_Preview(t *testing.T) {
	ts := newTestServer(t, 0)

	w := ts.post(t, map[string]string{DataFileField: classCSV, FormatFileField: classFormat}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report importer.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, importer.ModePreview, report.Mode)
	assert.Equal(t, "class.csv", report.File)
	assert.Equal(t, `File "class.csv" has 1 sheets and contains 3 rows of data`, report.Caption)
	require.NotNil(t, report.Grid)
	assert.Len(t, report.Grid.Rows, 2)
	assert.Zero(t, ts.store.Counts()["users"])
}

func TestCreateImport_ImportCreatesUsers(t *testing.T) {
	ts := newTestServer(t, 0)

	w := ts.post(t,
		map[string]string{DataFileField: classCSV, FormatFileField: classFormat},
		map[string]string{ModeField: "import", "upload_action": "addnew", "password_action": "createnew"},
	)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report importer.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	require.NotNil(t, report.Summary)
	assert.Equal(t, 2, report.Summary.Created)
	assert.Equal(t, 0, report.Summary.Failed)

	for _, name := range []string{"carol", "dave"} {
		u, err := ts.store.UserByUsername(context.Background(), name)
		require.NoError(t, err)
		assert.NotEmpty(t, u.Password, "random password is stored hashed")
	}

	keys, err := ts.storage.List(context.Background(), "uploads/")
	require.NoError(t, err)
	assert.Empty(t, keys, "staged uploads are removed after the run")
}

func TestCreateImport_BadRequests(t *testing.T) {
	tests := []struct {
		name   string
		files  map[string]string
		fields map[string]string
		want   int
	}{
		{
			name:  "missing format file",
			files: map[string]string{DataFileField: classCSV},
			want:  http.StatusBadRequest,
		},
		{
			name:  "missing data file",
			files: map[string]string{FormatFileField: classFormat},
			want:  http.StatusBadRequest,
		},
		{
			name:   "unknown mode",
			files:  map[string]string{DataFileField: classCSV, FormatFileField: classFormat},
			fields: map[string]string{ModeField: "explode"},
			want:   http.StatusBadRequest,
		},
		{
			name:  "malformed format file",
			files: map[string]string{DataFileField: classCSV, FormatFileField: "<importusersfile>"},
			want:  http.StatusBadRequest,
		},
		{
			name:   "invalid option value",
			files:  map[string]string{DataFileField: classCSV, FormatFileField: classFormat},
			fields: map[string]string{"upload_action": "sometimes"},
			want:   http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, 0)
			w := ts.post(t, tt.files, tt.fields)
			assert.Equal(t, tt.want, w.Code, w.Body.String())

			keys, err := ts.storage.List(context.Background(), "uploads/")
			require.NoError(t, err)
			assert.Empty(t, keys)
		})
	}
}

func TestCreateImport_UploadTooLarge(t *testing.T) {
	ts := newTestServer(t, 64)

	w := ts.post(t, map[string]string{DataFileField: classCSV, FormatFileField: classFormat}, nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestHealthCheck_MemoryStore(t *testing.T) {
	ts := newTestServer(t, 0)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "memory", resp.Store)
	assert.Equal(t, "not configured", resp.Database)
}
