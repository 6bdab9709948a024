package binder

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type params struct {
	Hello string `json:"hello" mod:"trim" validate:"max=9"`
	Omit  string `json:"-"`
}

type uploadParams struct {
	Name  string `form:"name" json:"name"`
	Count int    `form:"count" json:"count"`

	FormFiles map[string][]*multipart.FileHeader `form:"-" json:"-" validate:"-"`
}

var (
	goodJSON             = `{"hello":" world "}`
	unknownFieldsErrJSON = `{"hello":"world","foo":"bar"}`
	typeErrJSON          = `{"hello":123}`
	validationErrJSON    = `{"hello":"0123456789"}`
)

func TestNew(t *testing.T) {
	t.Parallel()
	b, err := New()
	require.NoError(t, err)
	assert.NotNil(t, b)

	t.Run("rejects unsupported content types", func(tt *testing.T) {
		c := newContext(goodJSON, echo.MIMEApplicationXML)
		p := params{}
		err = b.Bind(&p, c)
		assert.Contains(tt, err.Error(), "Unsupported Media Type")
	})

	t.Run("disallows unknown fields", func(tt *testing.T) {
		c := newContext(unknownFieldsErrJSON, echo.MIMEApplicationJSON)
		p := params{}
		err = b.Bind(&p, c)
		assert.Contains(tt, err.Error(), `Unknown Parameter "foo"`)
	})

	t.Run("returns a good message for type errors", func(tt *testing.T) {
		c := newContext(typeErrJSON, echo.MIMEApplicationJSON)
		p := params{}
		err = b.Bind(&p, c)
		assert.Contains(tt, err.Error(), `"hello" should be of type string`)
	})

	t.Run("use mod tag to modify params", func(tt *testing.T) {
		c := newContext(goodJSON, echo.MIMEApplicationJSON)
		p := params{}
		err = b.Bind(&p, c)
		require.NoError(tt, err)
		assert.Equal(tt, "world", p.Hello)
	})

	t.Run("use validate tag to validate params", func(tt *testing.T) {
		c := newContext(validationErrJSON, echo.MIMEApplicationJSON)
		p := params{}
		err = b.Bind(&p, c)
		assert.Contains(tt, err.Error(), "length must be less than or equal to 9 characters")
	})
}

func TestBind_MultipartFiles(t *testing.T) {
	t.Parallel()
	b, err := New()
	require.NoError(t, err)

	t.Run("binds form values and all files per key", func(tt *testing.T) {
		var body bytes.Buffer
		w := multipart.NewWriter(&body)
		require.NoError(tt, w.WriteField("name", "example"))
		require.NoError(tt, w.WriteField("count", "3"))
		for _, filename := range []string{"a.bin", "b.bin"} {
			fw, err := w.CreateFormFile("attachments", filename)
			require.NoError(tt, err)
			_, err = fw.Write([]byte("payload"))
			require.NoError(tt, err)
		}
		require.NoError(tt, w.Close())

		c := newMultipartContext(&body, w.FormDataContentType())
		p := uploadParams{}
		require.NoError(tt, b.Bind(&p, c))

		assert.Equal(tt, "example", p.Name)
		assert.Equal(tt, 3, p.Count)
		require.Contains(tt, p.FormFiles, "attachments")
		require.Len(tt, p.FormFiles["attachments"], 2)
		assert.Equal(tt, "a.bin", p.FormFiles["attachments"][0].Filename)
		assert.Equal(tt, "b.bin", p.FormFiles["attachments"][1].Filename)
	})

	t.Run("leaves FormFiles nil without uploads", func(tt *testing.T) {
		var body bytes.Buffer
		w := multipart.NewWriter(&body)
		require.NoError(tt, w.WriteField("name", "example"))
		require.NoError(tt, w.Close())

		c := newMultipartContext(&body, w.FormDataContentType())
		p := uploadParams{}
		require.NoError(tt, b.Bind(&p, c))

		assert.Equal(tt, "example", p.Name)
		assert.Nil(tt, p.FormFiles)
	})
}

func newContext(payload, mime string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(echo.POST, "/", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, mime)
	rr := httptest.NewRecorder()
	return e.NewContext(req, rr)
}

func newMultipartContext(body *bytes.Buffer, contentType string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(echo.POST, "/", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rr := httptest.NewRecorder()
	return e.NewContext(req, rr)
}
