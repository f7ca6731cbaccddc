package validation

import (
	"errors"
	"mime/multipart"
	"path/filepath"
	"strings"
)

var (
	ErrFileSize         = errors.New("File size exceeds limit of 10MB")
	ErrImageType        = errors.New("Invalid file type. Allowed types: JPG, PNG, WEBP")
	ErrDocumentType     = errors.New("Invalid file type. Allowed types: PDF, JPG, PNG, DOCX, XLSX")
	ErrFileRequired     = errors.New("No file uploaded")
	ErrFileNameRequired = errors.New("File name is required")
)

const MaxUploadSize = 10 * 1024 * 1024 // 10MB

var AllowedImageTypes = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// AllowedDocumentTypes maps extensions to the content type stored with the object.
var AllowedDocumentTypes = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

func ValidateImage(file *multipart.FileHeader) error {
	if err := checkFile(file); err != nil {
		return err
	}

	if !AllowedImageTypes[Ext(file.Filename)] {
		return ErrImageType
	}

	return nil
}

// ValidateDocument returns the content type to store the document under.
func ValidateDocument(file *multipart.FileHeader) (string, error) {
	if err := checkFile(file); err != nil {
		return "", err
	}

	contentType, ok := AllowedDocumentTypes[Ext(file.Filename)]
	if !ok {
		return "", ErrDocumentType
	}

	return contentType, nil
}

func Ext(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

func checkFile(file *multipart.FileHeader) error {
	if file == nil {
		return ErrFileRequired
	}
	if strings.TrimSpace(file.Filename) == "" {
		return ErrFileNameRequired
	}
	if file.Size > MaxUploadSize {
		return ErrFileSize
	}
	return nil
}
