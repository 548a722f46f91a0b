package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEstimator(t *testing.T) {
	// 测试单例模式
	estimator1, err := GetEstimator()
	require.NoError(t, err, "should create estimator without error")
	require.NotNil(t, estimator1)

	estimator2, err := GetEstimator()
	require.NoError(t, err)
	assert.Same(t, estimator1, estimator2, "should return the same instance")
}

func TestEstimator_CountTokens(t *testing.T) {
	estimator, err := GetEstimator()
	require.NoError(t, err)

	tests := []struct {
		name     string
		text     string
		minCount int
		maxCount int
	}{
		{
			name:     "空字符串",
			text:     "",
			minCount: 0,
			maxCount: 0,
		},
		{
			name:     "简单英文",
			text:     "Hello, world!",
			minCount: 3,
			maxCount: 5,
		},
		{
			name:     "业务句子",
			text:     "Our mission is to help small retailers understand their sales data.",
			minCount: 10,
			maxCount: 20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count := estimator.CountTokens(tt.text)
			assert.GreaterOrEqual(t, count, tt.minCount)
			assert.LessOrEqual(t, count, tt.maxCount)
		})
	}
}

func TestEstimator_CountTokensBatch(t *testing.T) {
	estimator, err := GetEstimator()
	require.NoError(t, err)

	texts := []string{
		"Hello, world!",
		"Quarterly revenue report",
		"open tickets",
	}

	// 批量计数应该等于单独计数之和
	batchCount := estimator.CountTokensBatch(texts)

	var singleSum int
	for _, text := range texts {
		singleSum += estimator.CountTokens(text)
	}
	assert.Equal(t, singleSum, batchCount)
}

func TestEstimator_Consistency(t *testing.T) {
	estimator, err := GetEstimator()
	require.NoError(t, err)

	// 相同文本应该返回相同的 token 数
	text := "This is a test for consistency."
	count1 := estimator.CountTokens(text)
	count2 := estimator.CountTokens(text)
	assert.Equal(t, count1, count2)
}
