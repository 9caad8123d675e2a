package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"slices"
	"strings"

	"github.com/h2non/filetype"

	"github.com/ignatzorin/engagement-backend/internal/pkg/apperror"
	"github.com/ignatzorin/engagement-backend/internal/usecase/engagement"
)

// Типы документов, которые сотрудник может приложить к обновлению услуги.
var allowedArtifactTypes = []string{
	"application/msword",
	"application/pdf",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/zip",
	"image/gif",
	"image/jpeg",
	"image/png",
	"image/webp",
}

// equivalentExtensions - расширения, которые filetype сводит к одному типу.
var equivalentExtensions = map[string]string{
	".jpeg": ".jpg",
}

// openArtifact проверяет реальный тип файла по сигнатуре и возвращает
// артефакт, готовый к сохранению. Вызывающий закрывает файл.
func openArtifact(header *multipart.FileHeader, maxBytes int64) (engagement.Artifact, multipart.File, error) {
	if header.Size == 0 {
		return engagement.Artifact{}, nil, apperror.New(apperror.ErrCodeValidation, "файл не может быть пустым")
	}
	if maxBytes > 0 && header.Size > maxBytes {
		return engagement.Artifact{}, nil, apperror.New(apperror.ErrCodeValidation, fmt.Sprintf("размер файла превышает лимит %d байт", maxBytes))
	}

	src, err := header.Open()
	if err != nil {
		return engagement.Artifact{}, nil, apperror.Wrap(err, apperror.ErrCodeBadRequest, "не удалось открыть файл")
	}

	// сигнатуры всех поддерживаемых форматов укладываются в первые 512 байт
	buffer := make([]byte, 512)
	n, err := src.Read(buffer)
	if err != nil && err != io.EOF {
		src.Close()
		return engagement.Artifact{}, nil, apperror.Wrap(err, apperror.ErrCodeBadRequest, "не удалось прочитать файл")
	}

	kind, err := filetype.Match(buffer[:n])
	if err != nil || kind == filetype.Unknown {
		src.Close()
		return engagement.Artifact{}, nil, apperror.New(apperror.ErrCodeValidation, "не удалось определить тип файла")
	}
	contentType := kind.MIME.Value
	if !slices.Contains(allowedArtifactTypes, contentType) {
		src.Close()
		return engagement.Artifact{}, nil, apperror.New(apperror.ErrCodeValidation, fmt.Sprintf("неподдерживаемый тип файла (%s). Разрешены: %s", contentType, strings.Join(allowedArtifactTypes, ", ")))
	}

	ext := normalizeExt(filepath.Ext(header.Filename))
	if expected := normalizeExt("." + kind.Extension); ext != expected {
		src.Close()
		return engagement.Artifact{}, nil, apperror.New(apperror.ErrCodeValidation, fmt.Sprintf("расширение файла (%s) не соответствует реальному типу (%s)", ext, expected))
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		src.Close()
		return engagement.Artifact{}, nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сбросить позицию файла")
	}

	return engagement.Artifact{
		FileName:    filepath.Base(header.Filename),
		ContentType: contentType,
		Size:        header.Size,
		Body:        src,
	}, src, nil
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if alias, ok := equivalentExtensions[ext]; ok {
		return alias
	}
	return ext
}
