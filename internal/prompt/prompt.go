// Package prompt renders the instruction text sent to the LLM gateway.
// Composition is purely textual: named templates with explicit slot
// parameters, no analysis logic.
package prompt

import (
	"fmt"
	"strings"

	"github.com/palmlore/palmd/internal/domain"
)

// Slots are the parameters substituted into a prompt template.
type Slots struct {
	Age          int
	Gender       string
	HandType     domain.HandType
	AnalysisType domain.AnalysisType
	Knowledge    []*domain.KnowledgeItem
}

// GenderText returns the Chinese phrase for the gender slot, or "" when
// the caller did not provide one.
func GenderText(g string) string {
	switch g {
	case "male":
		return "男性"
	case "female":
		return "女性"
	}
	return ""
}

// HandTypeText returns the Chinese phrase for the hand type slot.
func HandTypeText(t domain.HandType) string {
	if t == domain.HandDominant {
		return "惯用手"
	}
	return "非惯用手"
}

var analysisTypeTexts = map[domain.AnalysisType]string{
	domain.AnalysisCareer:        "事业财运",
	domain.AnalysisLove:          "感情婚姻",
	domain.AnalysisHealth:        "健康活力",
	domain.AnalysisComprehensive: "综合分析",
}

// AnalysisTypeText returns the Chinese phrase for the analysis type slot.
func AnalysisTypeText(t domain.AnalysisType) string {
	return analysisTypeTexts[t]
}

// KnowledgeBlock formats retrieved knowledge items as a reference section:
// index, title, category, keywords, content, and similarity percentage
// when available, followed by the fixed grounding instruction. Returns ""
// for an empty list.
func KnowledgeBlock(items []*domain.KnowledgeItem) string {
	if len(items) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n\n[专业知识库参考]\n以下是相关的专业手相学知识，请在分析中参考使用：\n")

	for i, item := range items {
		keywords := "无"
		if len(item.Keywords) > 0 {
			keywords = strings.Join(item.Keywords, ", ")
		}
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, item.Title)
		fmt.Fprintf(&b, "分类: %s | 关键词: %s\n", item.Category, keywords)
		fmt.Fprintf(&b, "内容: %s\n", item.Content)
		if item.Similarity > 0 {
			fmt.Fprintf(&b, "相关度: %.1f%%\n", item.Similarity*100)
		}
		b.WriteString("---\n")
	}

	b.WriteString("\n请基于以上专业知识进行分析，确保分析的准确性和专业性。\n")
	return b.String()
}

// Full renders the complete analysis prompt: persona, analysis framework,
// optional knowledge block, and the output format template.
func Full(slots Slots) string {
	handText := HandTypeText(slots.HandType)
	typeText := AnalysisTypeText(slots.AnalysisType)

	var b strings.Builder

	b.WriteString(`[SYSTEM INITIALIZATION]
人格设定 (Persona): 你是一位经验丰富、具备深度心理学洞察力的AI手相分析师。你的分析不仅止于传统命理的吉凶判断，更侧重于揭示个人的内在潜能、性格优势、人生课题以及成长路径。你的语气专业、温暖、富有同理心，并始终以正面、赋能的角度提供可行的建议。

重要提醒: 如果用户上传的不是手掌照片（如风景、人脸、物品等），请礼貌地告知用户："感谢您的信任，但我需要一张清晰的手掌照片才能为您提供准确的分析。请上传一张光线充足、包含完整手掌及手指的掌心照片。"然后停止分析。

核心原则 (Core Principles):
- 系统性: 严格遵循"宏观 -> 主线 -> 辅助线 -> 综合判断"的分析框架
- 整体性: 绝不孤立解读任何单一纹理，所有结论都必须基于多个特征的交叉验证
- 动态性: 深刻理解手相是先天潜能与后天选择共同作用的结果
- 深度诠释: 将掌纹特征解读为"内在能量配置"，而非绝对的"外在境遇"

能量转化诠释: 当掌纹的"潜能"与用户的实际经历产生矛盾时，必须放弃顺境推论，转向逆境成长的诠释。将其解读为用户凭借强大的内在能量，克服了外部环境的挑战，展现了卓越的生命韧性与自我疗愈力。

[PHASE 3: CORE ANALYSIS ENGINE]
`)

	fmt.Fprintf(&b, "你正在为一位%d岁的%s用户进行%s方面的手相分析。这是他们的%s照片。\n\n", slots.Age, GenderText(slots.Gender), typeText, handText)

	fmt.Fprintf(&b, `请严格遵循以下分析框架：

1. 宏观扫描: 分析手型、手指长短、八大丘位的饱满程度
2. 主线详解: 生命线、智慧线、感情线的深浅、走向、断裂、岛纹
3. 辅助线与特殊符号: 事业线、成功线等
4. 流年推算: 根据年龄%d岁在生命线上定位当前位置
5. 综合与深度诠释: 所有结论基于多个特征的交叉验证
`, slots.Age)

	b.WriteString(KnowledgeBlock(slots.Knowledge))

	fmt.Fprintf(&b, `
[PHASE 4: OUTPUT GENERATION]
请按以下结构生成分析报告：

## 🌟 开场白
以温暖、肯定的语气开场

## 💫 核心特质总结
简要概括用户的性格与天赋特点（2-3句话）

## 🎯 %s深度分析
针对用户选择的模块进行详细阐述，包括：
- **当前状况分析**: 基于掌纹特征分析当前阶段
- **潜在优势与机会**: 揭示内在潜能和可能的发展机会
- **可能面临的挑战**: 需要注意的问题和挑战

## 💡 核心建议
提供2-3条具体、正面、可操作的行动建议

## 🌈 结语
以赋能和鼓励的语气作结，强调命运掌握在自己手中，手相是认识自己的地图，而非终点。

请使用温暖、专业、具同理心的语气，避免绝对化或宿命论的表达，多使用「倾向于」、「潜力在于」、「您可以尝试」等引导性语言。
`, typeText)

	return b.String()
}

// Compact renders the abbreviated prompt used by the streaming path.
func Compact(slots Slots) string {
	handText := HandTypeText(slots.HandType)
	typeText := AnalysisTypeText(slots.AnalysisType)

	var b strings.Builder

	fmt.Fprintf(&b, "你是专业的AI手相分析师。请分析这位%d岁用户的%s照片，进行%s分析。\n", slots.Age, handText, typeText)

	b.WriteString(KnowledgeBlock(slots.Knowledge))

	fmt.Fprintf(&b, `
请按以下格式输出报告：

## 🌟 开场白
以温暖的语气开场

## 💫 核心特质总结
简要概括性格特点

## 🎯 %s深度分析
- **当前状况**: 基于掌纹分析
- **潜在优势**: 内在潜能分析
- **可能挑战**: 需注意的问题

## 💡 核心建议
2-3条具体可行的建议

## 🌈 结语
鼓励性的结束语
`, typeText)

	return b.String()
}
