package httpresp

import "github.com/xdie/clasificados/server/avisos/domain"

const (
	MsgNoFiles      = "no files uploaded"
	MsgTooManyFiles = "at most %d files per upload"
	MsgFileTooLarge = "uploaded file exceeds the size limit"
	MsgUploadFailed = "failed to process uploaded images"
	MsgSaveFailed   = "failed to save the aviso"
	MsgFetchFailed  = "failed to fetch avisos"
)

// MessageResponse is the generic body for both the 400 and 500 paths; the
// client only distinguishes success from failure.
type MessageResponse struct {
	Message string `json:"message"`
}

// ImagesResponse carries the manifest of an accepted upload batch, in input
// order.
type ImagesResponse struct {
	Images domain.Manifest `json:"images"`
}

func NewMessageResponse(message string) MessageResponse {
	return MessageResponse{Message: message}
}

func NewImagesResponse(images domain.Manifest) ImagesResponse {
	return ImagesResponse{Images: images}
}
