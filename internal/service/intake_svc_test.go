package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntakeValidator_Validate(t *testing.T) {
	v := NewIntakeValidator()

	tests := []struct {
		name       string
		file       FileDescriptor
		wantValid  bool
		wantReason string
	}{
		{"jpeg 小文件", FileDescriptor{ContentType: "image/jpeg", Size: 1024}, true, ""},
		{"png", FileDescriptor{ContentType: "image/png", Size: 1}, true, ""},
		{"webp", FileDescriptor{ContentType: "image/webp", Size: 1}, true, ""},
		{"大写与参数", FileDescriptor{ContentType: "IMAGE/PNG; charset=binary", Size: 1}, true, ""},
		{"恰好 2 MiB", FileDescriptor{ContentType: "image/jpeg", Size: MaxIntakeBytes}, true, ""},
		{"超出 1 字节", FileDescriptor{ContentType: "image/jpeg", Size: MaxIntakeBytes + 1}, false, ReasonTooLarge},
		{"gif", FileDescriptor{ContentType: "image/gif", Size: 1}, false, ReasonUnsupportedType},
		{"空类型", FileDescriptor{ContentType: "", Size: 1}, false, ReasonUnsupportedType},
		{"类型优先于大小", FileDescriptor{ContentType: "application/pdf", Size: MaxIntakeBytes * 2}, false, ReasonUnsupportedType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.Validate(tt.file)
			assert.Equal(t, tt.wantValid, res.Valid)
			assert.Equal(t, tt.wantReason, res.Reason)
		})
	}
}

func TestIntakeValidator_Check(t *testing.T) {
	err := NewIntakeValidator().Check(FileDescriptor{ContentType: "image/gif", Size: 10})

	var intakeErr *IntakeError
	assert.True(t, errors.As(err, &intakeErr))
	assert.Equal(t, ReasonUnsupportedType, intakeErr.Reason)
	assert.ErrorIs(t, err, ErrIntakeRejected)

	assert.NoError(t, NewIntakeValidator().Check(FileDescriptor{ContentType: "image/png", Size: 10}))
}

func TestDeclaredType(t *testing.T) {
	pngData := pngBytes(t, 4, 4)

	assert.Equal(t, "image/jpeg", DeclaredType("image/jpeg", pngData), "显式声明优先")
	assert.Equal(t, "image/png", DeclaredType("", pngData))
	assert.Equal(t, "image/png", DeclaredType("application/octet-stream", pngData))
	assert.False(t, IsAllowedType(DeclaredType("", []byte("GIF89a....."))))
}
