package ai

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// DefaultPrompt AI 指令的默认文本（前端高级配置的初始值）
const DefaultPrompt = "请根据上传的科目余额表数据，按照映射规则，自动填充目标报表模板。\n" +
	"要求：\n" +
	"1. 严格按照科目编码进行数据映射\n" +
	"2. 自动计算合计行和小计行\n" +
	"3. 金额单位自动转换（元→万元）\n" +
	"4. 生成数据校验摘要"

// EngineOptions 可选的 AI 引擎（展示用列表）
var EngineOptions = []string{
	"DeepSeek-V3（推荐·成本低）",
	"Claude Sonnet 4（高精度）",
	"Gemini 2.5 Pro（多语言）",
	"本地规则引擎（离线·无需API）",
}

// 密钥查找顺序：配置的密钥文件 → 进程环境变量 → 本地 .env 文件
var keyEnvNames = []string{"FINREPORT_AI_API_KEY", "OPENAI_API_KEY", "DEEPSEEK_API_KEY"}

// ResolveAPIKey 按固定顺序解析 API 密钥，第一个命中者生效。
// 三处都没有时返回空串，引擎退化为本地规则应答器。
func ResolveAPIKey(keyFile string) string {
	if keyFile != "" {
		if data, err := os.ReadFile(keyFile); err == nil {
			if key := firstKeyLine(string(data)); key != "" {
				return key
			}
		}
	}

	for _, name := range keyEnvNames {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}

	if envMap, err := godotenv.Read(".env"); err == nil {
		for _, name := range keyEnvNames {
			if v := strings.TrimSpace(envMap[name]); v != "" {
				return v
			}
		}
	}

	return ""
}

// firstKeyLine 密钥文件取首个非空、非注释行；支持 KEY=VALUE 形式
func firstKeyLine(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, value, found := strings.Cut(line, "="); found {
			return strings.TrimSpace(value)
		}
		return line
	}
	return ""
}

// Engine 报表分析文字的生成器。API 密钥可用时走 OpenAI 兼容接口，
// 否则使用确定性的本地规则应答器，对调用方透明。
type Engine struct {
	client *openai.Client
	model  string
	log    *logrus.Logger
}

// NewEngine 创建 AI 引擎。apiKey 为空时只提供本地规则应答。
func NewEngine(apiKey, baseURL, model string, log *logrus.Logger) *Engine {
	e := &Engine{model: model, log: log}
	if apiKey == "" {
		return e
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	e.client = openai.NewClientWithConfig(cfg)
	return e
}

// Available 是否有可用的远端 AI 接口
func (e *Engine) Available() bool {
	return e.client != nil
}

// Summarize 生成分析文字。远端调用失败或不可用时退回本地规则应答，
// 该退化是预期路径，不作为错误对外暴露。
func (e *Engine) Summarize(ctx context.Context, prompt string) string {
	if e.client == nil {
		return ruleBasedResponse(prompt)
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "你是一个专业的财务报表分析助手，请用简洁的中文输出分析结论。"},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		e.log.Warnf("AI 调用失败，使用本地规则应答: %v", err)
		return ruleBasedResponse(prompt)
	}
	if len(resp.Choices) == 0 {
		return ruleBasedResponse(prompt)
	}
	return resp.Choices[0].Message.Content
}

// ruleBasedResponse 确定性的本地应答：按提示词中的关键数字生成固定格式结论
func ruleBasedResponse(prompt string) string {
	var b strings.Builder
	b.WriteString("【本地规则引擎分析】\n")
	b.WriteString("数据已按映射规则完成汇总，各数值列的合计、平均、最大、最小值见数据汇总表。\n")

	lines := strings.Split(prompt, "\n")
	count := 0
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if strings.Contains(line, "合计") && count < 5 {
			b.WriteString(fmt.Sprintf("- %s\n", line))
			count++
		}
	}
	b.WriteString("如需更深入的智能分析，请配置 AI 接口密钥。")
	return b.String()
}
