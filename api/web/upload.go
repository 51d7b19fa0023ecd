package web

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/phosio/phosio/api/_apimeta"
	"github.com/phosio/phosio/api/_responses"
	"github.com/phosio/phosio/common"
	"github.com/phosio/phosio/common/rcontext"
	"github.com/phosio/phosio/controllers/media_controller"
	"github.com/phosio/phosio/templating"
)

const maxMultipartMemory = 32 << 20

func UploadForm(r *http.Request, rctx rcontext.RequestContext, user _apimeta.UserInfo) interface{} {
	return renderPage(rctx, "upload", &templating.UploadModel{
		LayoutModel: layout("Upload", user),
		MediaType:   "photo",
	}, http.StatusOK)
}

func uploadFiles(headers []*multipart.FileHeader) []*media_controller.UploadFile {
	files := make([]*media_controller.UploadFile, 0, len(headers))
	for _, fh := range headers {
		header := fh
		files = append(files, &media_controller.UploadFile{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			SizeBytes:   header.Size,
			Open: func() (io.ReadCloser, error) {
				return header.Open()
			},
		})
	}
	return files
}

func Upload(r *http.Request, rctx rcontext.RequestContext, user _apimeta.UserInfo) interface{} {
	model := &templating.UploadModel{LayoutModel: layout("Upload", user), MediaType: "photo"}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		rctx.Log.Debug("Unreadable upload form: ", err)
		model.FormError = "The upload could not be read."
		return renderPage(rctx, "upload", model, http.StatusBadRequest)
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			rctx.Log.Warn("Error removing temporary upload files: ", err)
		}
	}()

	form := r.MultipartForm
	req := &media_controller.UploadRequest{
		Title:       first(form.Value["title"]),
		Description: first(form.Value["description"]),
		MediaType:   first(form.Value["mediaType"]),
		TagsCsv:     first(form.Value["tagsCsv"]),
		Files:       uploadFiles(form.File["files"]),
	}
	model.Title = req.Title
	model.Description = req.Description
	model.MediaType = req.MediaType
	model.TagsCsv = req.TagsCsv

	id, err := media_controller.Upload(rctx, user.AccessToken, user.UserId, req)
	if err != nil {
		if errors.Is(err, common.ErrAuthInvalid) {
			return _responses.LoginRedirect(rctx.Config)
		}
		var uploadErr *media_controller.UploadError
		if errors.As(err, &uploadErr) {
			if uploadErr.StatusCode >= 500 {
				rctx.Log.Error("Upload failed: ", err)
			}
			model.FormError = uploadErr.FormError
			model.FieldErrors = uploadErr.FieldErrors
			return renderPage(rctx, "upload", model, uploadErr.StatusCode)
		}
		rctx.Log.Error("Upload failed: ", err)
		model.FormError = "The upload failed. Try again later."
		return renderPage(rctx, "upload", model, statusFor(err))
	}
	return _responses.SeeOther("/app/media/" + id)
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
