package service

import (
	"context"

	"localsphere/internal/dto"
)

type CaptureService interface {
	Capture(ctx context.Context, r dto.CaptureRequest) (*dto.CaptureResponse, error)
	VerifyByToken(ctx context.Context, token string, v dto.Visitor) (*dto.VerifyResponse, error)
	Stats(ctx context.Context) (*dto.StatsResponse, error)
}
