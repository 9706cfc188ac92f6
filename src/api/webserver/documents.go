package webserver

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Documents implements the storage collaborator: it accepts an opaque
// upload and hands back a reference string. Everything downstream
// stores and forwards that reference verbatim.
type Documents struct {
	dir string
}

var allowedDocExt = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".odt":  true,
}

func NewDocuments(dir string) Documents {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Fatalf("documents: %v", err)
	}
	return Documents{dir: dir}
}

func (d Documents) Upload(c *gin.Context) {
	file, err := c.FormFile("document")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "document file is required"})
		return
	}
	if file.Size > 20<<20 {
		c.JSON(http.StatusBadRequest, gin.H{"err": "document exceeds 20MB"})
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedDocExt[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"err": "unsupported document type"})
		return
	}

	name := fmt.Sprintf("%s%s", uuid.NewString(), ext)
	if err := c.SaveUploadedFile(file, filepath.Join(d.dir, name)); err != nil {
		log.Printf("documents: save %s: %v", name, err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "failed to store document"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"url": "/v1/documents/" + name})
}

func (d Documents) Serve(c *gin.Context) {
	// filepath.Base strips any traversal the client smuggled in.
	name := filepath.Base(c.Param("name"))
	path := filepath.Join(d.dir, name)
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "document not found"})
		return
	}
	c.File(path)
}
