package tokenizer

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// 在包初始化时设置离线加载器，避免首次计数时走网络下载 BPE 文件
func init() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// Estimator token 估算器
// 优先使用 tiktoken 精确计数（cl100k_base，GPT-4/Claude 兼容），
// 编码初始化失败时回退到字符启发式。两种模式都是确定性的纯函数，
// 且对前缀单调：更长的文本不会估算出更少的 token
type Estimator struct {
	encoding *tiktoken.Tiktoken
	fallback bool
	mu       sync.RWMutex
}

// 单例实例
var (
	estimatorInstance *Estimator
	estimatorOnce     sync.Once
)

// GetEstimator 获取 Estimator 单例
// 使用单例模式避免重复加载编码文件
func GetEstimator() *Estimator {
	estimatorOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			// 离线环境没有 BPE 数据时回退启发式
			estimatorInstance = &Estimator{fallback: true}
			return
		}
		estimatorInstance = &Estimator{encoding: enc}
	})
	return estimatorInstance
}

// CountTokens 计算文本的 token 数量
func (e *Estimator) CountTokens(text string) int {
	if text == "" {
		return 0
	}

	if e.fallback {
		return heuristicCount(text)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	tokens := e.encoding.Encode(text, nil, nil)
	return len(tokens)
}

// CountTokensBatch 批量计算多个文本的 token 数量
func (e *Estimator) CountTokensBatch(texts []string) int {
	total := 0
	for _, text := range texts {
		total += e.CountTokens(text)
	}
	return total
}

// GetMethod 返回计算方法标识
func (e *Estimator) GetMethod() string {
	if e.fallback {
		return "heuristic"
	}
	return "tiktoken"
}

// heuristicCount 字符启发式估算
// CJK 字符约 1.5 token/字，ASCII 约 4 字符/token
func heuristicCount(text string) int {
	cjkCount := 0
	otherCount := 0
	for _, r := range text {
		if isCJK(r) {
			cjkCount++
		} else {
			otherCount++
		}
	}
	estimate := int(float64(cjkCount)*1.5 + float64(otherCount)*0.25)
	if estimate < 1 {
		estimate = 1
	}
	return estimate
}

func isCJK(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) || // CJK 统一表意
		(r >= 0x3400 && r <= 0x4DBF) || // CJK 扩展 A
		(r >= 0x3000 && r <= 0x303F) || // CJK 符号
		(r >= 0xFF00 && r <= 0xFFEF) || // 全角字符
		(r >= 0xAC00 && r <= 0xD7AF) // 韩文
}
