package api

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/ififf/internal/report"
	"github.com/samcharles93/ififf/internal/storage"
	"github.com/samcharles93/ififf/pkg/blorb"
	"github.com/samcharles93/ififf/pkg/gameid"
	"github.com/samcharles93/ififf/pkg/iff"
	"github.com/samcharles93/ififf/pkg/quetzal"
)

var testIdentity = gameid.Identity{Release: 3, Serial: [6]byte{'8', '8', '0', '4', '2', '9'}, Checksum: 0x4242}

func newTestEcho(t *testing.T) *echo.Echo {
	t.Helper()
	server := NewServer(storage.NewMemoryStore(), Config{MaxUpload: 1 << 16})
	server.clock = func() time.Time { return time.Unix(1700000000, 0) }
	e := echo.New()
	server.Register(e)
	return e
}

func do(t *testing.T, e *echo.Echo, method, path, contentType string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func testSave(t *testing.T) []byte {
	t.Helper()
	original := make([]byte, 64)
	memory := append([]byte(nil), original...)
	memory[10] = 7
	data, err := quetzal.Save(testIdentity, original, memory, nil, quetzal.Frame{Stack: []uint16{1}})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	return data
}

func testBundle(t *testing.T) []byte {
	t.Helper()
	idChunk, err := gameid.NewChunk(testIdentity)
	if err != nil {
		t.Fatalf("identity: %v", err)
	}
	bld := blorb.NewBuilder()
	bld.AddChunk(idChunk)
	if err := bld.AddResource(blorb.UsagePicture, 1, iff.NewChunk(iff.MustID("PNG "), []byte{1, 2})); err != nil {
		t.Fatalf("add: %v", err)
	}
	buf, err := bld.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return buf
}

func storyHeader(id gameid.Identity) []byte {
	hdr := make([]byte, gameid.HeaderSize)
	hdr[0x02] = byte(id.Release >> 8)
	hdr[0x03] = byte(id.Release)
	copy(hdr[0x12:], id.Serial[:])
	hdr[0x1C] = byte(id.Checksum >> 8)
	hdr[0x1D] = byte(id.Checksum)
	return hdr
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestSlotLifecycle(t *testing.T) {
	t.Parallel()

	e := newTestEcho(t)
	save := testSave(t)

	createRec := do(t, e, http.MethodPost, "/v1/slots?name=before-troll", echo.MIMEOctetStream, save)
	if createRec.Code != http.StatusCreated {
		t.Fatalf("create status: got %d body=%s", createRec.Code, createRec.Body.String())
	}
	created := decode[SlotResponse](t, createRec)
	if !strings.HasPrefix(created.ID, "slot_") {
		t.Fatalf("slot id: got %q", created.ID)
	}
	if created.Name != "before-troll" || created.Identity == nil || created.Identity.Serial != "880429" {
		t.Fatalf("created slot: got %+v", created)
	}
	if created.Save == nil || created.Save.Memory != "compressed" || created.Save.MemoryBytes != 3 {
		t.Fatalf("created save summary: got %+v", created.Save)
	}
	if created.CreatedAt != 1700000000 {
		t.Fatalf("created_at: got %d want 1700000000", created.CreatedAt)
	}

	listRec := do(t, e, http.MethodGet, "/v1/slots", "", nil)
	list := decode[SlotList](t, listRec)
	if len(list.Data) != 1 || list.Data[0].ID != created.ID {
		t.Fatalf("list: got %+v", list)
	}

	dataRec := do(t, e, http.MethodGet, "/v1/slots/"+created.ID+"/data", "", nil)
	if dataRec.Code != http.StatusOK || !bytes.Equal(dataRec.Body.Bytes(), save) {
		t.Fatalf("slot data: got status %d, %d bytes", dataRec.Code, dataRec.Body.Len())
	}

	getRec := do(t, e, http.MethodGet, "/v1/slots/"+created.ID, "", nil)
	if getRec.Code != http.StatusOK {
		t.Fatalf("get status: got %d body=%s", getRec.Code, getRec.Body.String())
	}

	delRec := do(t, e, http.MethodDelete, "/v1/slots/"+created.ID, "", nil)
	if delRec.Code != http.StatusOK || !strings.Contains(delRec.Body.String(), `"deleted":true`) {
		t.Fatalf("delete: got %d body=%s", delRec.Code, delRec.Body.String())
	}

	missing := do(t, e, http.MethodGet, "/v1/slots/"+created.ID, "", nil)
	if missing.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d body=%s", missing.Code, missing.Body.String())
	}
}

func TestCreateSlotRejectsBadInput(t *testing.T) {
	t.Parallel()

	e := newTestEcho(t)
	idChunk, err := gameid.NewChunk(testIdentity)
	if err != nil {
		t.Fatalf("identity chunk: %v", err)
	}
	stackless, err := iff.Serialize(iff.NewForm(quetzal.FormType, idChunk, iff.NewChunk(quetzal.IDUncompressedMemory, make([]byte, 64))))
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	bare, err := iff.Serialize(iff.NewForm(quetzal.FormType))
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	tests := []struct {
		name string
		body []byte
		want int
	}{
		{"empty", nil, http.StatusBadRequest},
		{"save without stack", stackless, http.StatusBadRequest},
		{"save without children", bare, http.StatusBadRequest},
		{"garbage", []byte("not a chunk"), http.StatusBadRequest},
		{"bundle instead of save", testBundle(t), http.StatusUnprocessableEntity},
		{"too large", make([]byte, 1<<17), http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		rec := do(t, e, http.MethodPost, "/v1/slots", echo.MIMEOctetStream, tt.body)
		if rec.Code != tt.want {
			t.Fatalf("%s: got %d want %d body=%s", tt.name, rec.Code, tt.want, rec.Body.String())
		}
	}
}

func TestInspectEndpoints(t *testing.T) {
	t.Parallel()

	e := newTestEcho(t)

	rec := do(t, e, http.MethodPost, "/v1/bundles/inspect?width=640&height=480", echo.MIMEOctetStream, testBundle(t))
	if rec.Code != http.StatusOK {
		t.Fatalf("bundle inspect: got %d body=%s", rec.Code, rec.Body.String())
	}
	b := decode[report.Bundle](t, rec)
	if len(b.Resources) != 1 || b.Resources[0].Format != "PNG" || b.Resources[0].Ratio == nil || *b.Resources[0].Ratio != 1 {
		t.Fatalf("bundle report: got %+v", b)
	}

	rec = do(t, e, http.MethodPost, "/v1/bundles/inspect?width=x&height=1", echo.MIMEOctetStream, testBundle(t))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad width: got %d", rec.Code)
	}

	rec = do(t, e, http.MethodPost, "/v1/saves/inspect", echo.MIMEOctetStream, testSave(t))
	if rec.Code != http.StatusOK {
		t.Fatalf("save inspect: got %d body=%s", rec.Code, rec.Body.String())
	}
	s := decode[report.Save](t, rec)
	if s.Frames != 1 || s.Identity == nil || s.Identity.Release != 3 {
		t.Fatalf("save report: got %+v", s)
	}

	rec = do(t, e, http.MethodPost, "/v1/chunks/tree", echo.MIMEOctetStream, testSave(t))
	if rec.Code != http.StatusOK {
		t.Fatalf("tree: got %d body=%s", rec.Code, rec.Body.String())
	}
	tree := decode[report.Chunk](t, rec)
	if tree.ID != "FORM" || tree.SubID != "IFZS" || len(tree.Children) != 3 {
		t.Fatalf("tree: got %+v", tree)
	}
}

func multipartBody(t *testing.T, files map[string][]byte) (string, []byte) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, data := range files {
		part, err := w.CreateFormFile(name, name+".bin")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		part.Write(data)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return w.FormDataContentType(), buf.Bytes()
}

func TestVerifyBundle(t *testing.T) {
	t.Parallel()

	e := newTestEcho(t)

	ct, body := multipartBody(t, map[string][]byte{
		"bundle": testBundle(t),
		"story":  storyHeader(testIdentity),
	})
	rec := do(t, e, http.MethodPost, "/v1/bundles/verify", ct, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("verify match: got %d body=%s", rec.Code, rec.Body.String())
	}

	other := testIdentity
	other.Release++
	ct, body = multipartBody(t, map[string][]byte{
		"bundle": testBundle(t),
		"story":  storyHeader(other),
	})
	rec = do(t, e, http.MethodPost, "/v1/bundles/verify", ct, body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("verify mismatch: got %d body=%s", rec.Code, rec.Body.String())
	}
	if v := decode[report.Verify](t, rec); v.Match || v.Story == nil || v.Story.Release != 4 {
		t.Fatalf("verify body: got %+v", v)
	}

	ct, body = multipartBody(t, map[string][]byte{"bundle": testBundle(t)})
	rec = do(t, e, http.MethodPost, "/v1/bundles/verify", ct, body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("verify without story: got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	rec := do(t, newTestEcho(t), http.MethodGet, "/v1/health", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("health: got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestJSONSerializer(t *testing.T) {
	t.Parallel()

	e := newTestEcho(t)
	if _, ok := e.JSONSerializer.(jsonSerializer); !ok {
		t.Fatalf("serializer: got %T", e.JSONSerializer)
	}

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", strings.NewReader(`{"frames":2}`)), rec)
	if err := e.JSONSerializer.Serialize(c, map[string]int{"frames": 1}, "  "); err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if got, want := rec.Body.String(), "{\n  \"frames\": 1\n}\n"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}

	var back report.Save
	if err := e.JSONSerializer.Deserialize(c, &back); err != nil || back.Frames != 2 {
		t.Fatalf("deserialize: got %+v, %v", back, err)
	}
}
