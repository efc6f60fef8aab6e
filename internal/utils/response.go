package utils

// Error codes specific to bins-service only.
const (
	ErrCodeInvalidQRPayload = "invalid_qr_payload"
	ErrCodeQRGlyphMissing   = "qr_glyph_missing"
	ErrCodeStickerRender    = "sticker_render_failed"
)
