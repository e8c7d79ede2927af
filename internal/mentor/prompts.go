package mentor

import (
	"fmt"

	"github.com/p-n-ai/medstudy/internal/ai"
)

const tipsSystem = `Você é um mentor especialista em provas de residência médica no Brasil.
Seja conciso, direto e focado no que é cobrado nas grandes bancas (USP, UNICAMP, SUS-SP, ENARE).`

const askSystem = `Você é um assistente acadêmico para estudantes de medicina preparando para a residência.
Responda de forma didática, citando diretrizes brasileiras quando aplicável.`

func tipsPrompt(topic string) []ai.Message {
	return []ai.Message{
		{Role: "system", Content: tipsSystem},
		{Role: "user", Content: fmt.Sprintf(
			"Forneça 3 \"Pérolas de Prova\" (conhecimentos essenciais que sempre caem) para o seguinte tema: %s.\nFormate como uma lista curta em Markdown.",
			topic,
		)},
	}
}

func askPrompt(question, studyContext string) []ai.Message {
	return []ai.Message{
		{Role: "system", Content: askSystem},
		{Role: "user", Content: fmt.Sprintf("Tema de estudo atual: %s.\nPergunta do aluno: %s", studyContext, question)},
	}
}
