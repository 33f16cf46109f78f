package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/digitorus/pdfstamp"
	"github.com/digitorus/pdfstamp/storage"
)

const headerDocumentID = "X-Document-ID"

// Sign applies the JSON list of requests in the signatures field to the
// uploaded file.
func (s *Server) Sign(c *gin.Context) {
	name, input, ok := s.upload(c)
	if !ok {
		return
	}

	raw := c.PostForm("signatures")
	if strings.TrimSpace(raw) == "" {
		invalid(c, errors.New("signatures field is required"))
		return
	}
	reqs, err := pdfstamp.ParseRequests([]byte(raw))
	if err != nil {
		invalid(c, err)
		return
	}

	s.apply(c, name, input, reqs)
}

// SignText places one text signature described by form fields.
func (s *Server) SignText(c *gin.Context) {
	name, input, ok := s.upload(c)
	if !ok {
		return
	}

	req := pdfstamp.SignatureRequest{
		Type:  pdfstamp.TypeText,
		Data:  c.PostForm("text"),
		Font:  c.PostForm("font"),
		Color: c.PostForm("color"),
	}
	if req.Data == "" {
		invalid(c, errors.New("text field is required"))
		return
	}
	if err := placement(c, &req); err != nil {
		invalid(c, err)
		return
	}
	size, err := optionalNumber(c, "fontSize")
	if err != nil {
		invalid(c, err)
		return
	}
	req.FontSize = size

	s.apply(c, name, input, []pdfstamp.SignatureRequest{req})
}

// SignImage places one image signature described by form fields.
func (s *Server) SignImage(c *gin.Context) {
	name, input, ok := s.upload(c)
	if !ok {
		return
	}

	req := pdfstamp.SignatureRequest{
		Type: pdfstamp.TypeImage,
		Data: c.PostForm("image"),
	}
	if req.Data == "" {
		invalid(c, errors.New("image field is required"))
		return
	}
	if err := placement(c, &req); err != nil {
		invalid(c, err)
		return
	}
	scale, err := optionalNumber(c, "scale")
	if err != nil {
		invalid(c, err)
		return
	}
	req.Scale = scale

	s.apply(c, name, input, []pdfstamp.SignatureRequest{req})
}

// GetDocument returns the metadata record of a stored document.
func (s *Server) GetDocument(c *gin.Context) {
	if !s.storageEnabled(c) {
		return
	}
	rec, err := s.store.Get(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// GetSigned returns the signed PDF of a stored document.
func (s *Server) GetSigned(c *gin.Context) {
	if !s.storageEnabled(c) {
		return
	}
	id := c.Param("id")
	rec, err := s.store.Get(id)
	if err != nil {
		fail(c, err)
		return
	}
	data, err := s.store.Signed(id)
	if err != nil {
		fail(c, err)
		return
	}
	c.Header(headerDocumentID, rec.ID)
	attachment(c, rec.Filename, data)
}

func (s *Server) storageEnabled(c *gin.Context) bool {
	if s.store == nil {
		abort(c, http.StatusNotFound, kindNotFound, errors.New("document storage is disabled"))
		return false
	}
	return true
}

// apply runs the pipeline, stores the result when a store is configured
// and answers with the signed PDF.
func (s *Server) apply(c *gin.Context, name string, input []byte, reqs []pdfstamp.SignatureRequest) {
	out, err := s.stamper.ApplySignatures(c.Request.Context(), input, reqs)
	if err != nil {
		fail(c, err)
		return
	}

	if s.store != nil {
		rec, err := s.store.Save(name, input, out, applied(reqs))
		if err != nil {
			s.logger.Error("failed to store document", zap.String("filename", name), zap.Error(err))
			fail(c, err)
			return
		}
		c.Header(headerDocumentID, rec.ID)
	}
	attachment(c, name, out)
}

// upload reads the file field of a multipart request.
func (s *Server) upload(c *gin.Context) (string, []byte, bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		invalid(c, fmt.Errorf("file is required: %w", err))
		return "", nil, false
	}

	f, err := fh.Open()
	if err != nil {
		fail(c, err)
		return "", nil, false
	}
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("failed to close upload", zap.Error(err))
		}
	}()

	data, err := io.ReadAll(f)
	if err != nil {
		fail(c, err)
		return "", nil, false
	}
	return filename(fh.Filename), data, true
}

func placement(c *gin.Context, req *pdfstamp.SignatureRequest) error {
	var err error
	if req.X, err = pdfstamp.ParseNumber("x", c.PostForm("x")); err != nil {
		return err
	}
	if req.Y, err = pdfstamp.ParseNumber("y", c.PostForm("y")); err != nil {
		return err
	}
	req.Page, err = pdfstamp.ParsePage("pageNumber", c.PostForm("pageNumber"))
	return err
}

func optionalNumber(c *gin.Context, field string) (float64, error) {
	v := c.PostForm(field)
	if strings.TrimSpace(v) == "" {
		return 0, nil
	}
	return pdfstamp.ParseNumber(field, v)
}

// applied lists the requests the pipeline placed. Unknown types are
// skipped by the pipeline, so they are not recorded either.
func applied(reqs []pdfstamp.SignatureRequest) []storage.AppliedSignature {
	sigs := make([]storage.AppliedSignature, 0, len(reqs))
	for _, r := range reqs {
		if !r.Type.Known() {
			continue
		}
		sigs = append(sigs, storage.AppliedSignature{
			Type: string(r.Type.Normalize()),
			Page: r.Page,
			X:    r.X,
			Y:    r.Y,
		})
	}
	return sigs
}

func attachment(c *gin.Context, name string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "signed-"+name))
	c.Data(http.StatusOK, "application/pdf", data)
}

func filename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		if r == '"' || r < ' ' {
			return -1
		}
		return r
	}, name)
	if name == "" || name == "." || name == "/" {
		return "document.pdf"
	}
	return name
}
