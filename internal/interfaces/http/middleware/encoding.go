package middleware

import (
	"bytes"
	"io"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// EnsureUTF8Body 确保请求体是 UTF-8 编码的中间件
// Windows 下用 curl 写入中文消息时请求体可能是 GBK 编码，
// 这里检测并转换，避免乱码内容进入消息存储
func EnsureUTF8Body() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body == nil || c.Request.ContentLength == 0 {
			c.Next()
			return
		}

		bodyBytes, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Next()
			return
		}
		c.Request.Body.Close()

		if len(bodyBytes) == 0 || utf8.Valid(bodyBytes) {
			c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))
			c.Next()
			return
		}

		// Windows 中文系统默认 GBK (代码页 936)
		utf8Bytes, err := convertGBKToUTF8(bodyBytes)
		if err == nil && utf8.Valid(utf8Bytes) {
			c.Request.Body = io.NopCloser(bytes.NewReader(utf8Bytes))
			c.Request.ContentLength = int64(len(utf8Bytes))
		} else {
			c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}

		c.Next()
	}
}

// convertGBKToUTF8 将 GBK 编码的字节转换为 UTF-8
func convertGBKToUTF8(gbkBytes []byte) ([]byte, error) {
	reader := transform.NewReader(bytes.NewReader(gbkBytes), simplifiedchinese.GBK.NewDecoder())
	return io.ReadAll(reader)
}
