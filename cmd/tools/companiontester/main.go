package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/calm-companion/backend/internal/config"
	"github.com/zhouzirui/calm-companion/backend/internal/model/chat"
	"github.com/zhouzirui/calm-companion/backend/internal/model/script"
	"github.com/zhouzirui/calm-companion/backend/internal/service/completion"
	"github.com/zhouzirui/calm-companion/backend/internal/service/responder"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] 无法加载 .env，改用系统环境变量: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}

	mode := flag.String("mode", "rules", "测试模式: rules 或 remote")
	text := flag.String("text", "", "单条输入，留空则逐行读取标准输入")
	stream := flag.Bool("stream", false, "rules 模式下按节奏逐词输出回复")
	catalogPath := flag.String("catalog", cfg.Responder.ScriptPath, "回复话术 YAML 文件")
	timeout := flag.Duration("timeout", 45*time.Second, "请求超时时间")

	flag.Parse()

	catalogue := script.Seed()
	if *catalogPath != "" {
		if catalogue, err = script.Load(*catalogPath); err != nil {
			log.Fatalf("话术文件加载失败: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	inputs := readInputs(*text, os.Stdin)

	switch *mode {
	case "rules":
		if err := runRules(ctx, os.Stdout, catalogue, cfg.Responder, inputs, *stream); err != nil {
			log.Fatalf("rules 测试失败: %v", err)
		}
	case "remote":
		if err := runRemote(ctx, os.Stdout, catalogue, cfg.AI, inputs); err != nil {
			log.Fatalf("remote 测试失败: %v", err)
		}
	default:
		flag.Usage()
		log.Fatal("请通过 -mode=rules 或 -mode=remote 指定测试模式")
	}
}

func readInputs(text string, stdin io.Reader) []string {
	if text != "" {
		return []string{text}
	}

	var lines []string
	scanner := bufio.NewScanner(stdin)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}

// runRules replays inputs through one router, the way a single session would.
func runRules(ctx context.Context, out io.Writer, catalogue *script.Script, rc config.ResponderConfig, inputs []string, stream bool) error {
	router, err := responder.NewRouter(catalogue, rc.RouterConfig())
	if err != nil {
		return err
	}
	pacer := responder.NewPacer(rc.PacerConfig())

	var history []chat.Message
	for _, input := range inputs {
		reply := router.Respond(input, history)
		history = append(history,
			chat.Message{Sender: chat.SenderUser, Content: input},
			chat.Message{Sender: chat.SenderAssistant, Content: reply.Text, Category: string(reply.Category)},
		)

		fmt.Fprintf(out, "> %s\n[%s]", input, reply.Category)
		if reply.Suggestion != "" {
			fmt.Fprintf(out, " (%s)", reply.Suggestion)
		}
		fmt.Fprintln(out)

		if !stream {
			fmt.Fprintln(out, reply.Text)
			continue
		}
		for token, err := range pacer.Tokens(ctx, reply.Text) {
			if err != nil {
				return err
			}
			fmt.Fprint(out, token)
		}
		fmt.Fprintln(out)
	}

	metrics, err := json.MarshalIndent(router.Metrics(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "metrics: %s\n", metrics)
	return nil
}

func runRemote(ctx context.Context, out io.Writer, catalogue *script.Script, aiCfg config.AIConfig, inputs []string) error {
	fallback, err := completion.NewFallbackPool(catalogue.Fallback, nil)
	if err != nil {
		return err
	}

	var client *completion.Client
	if aiCfg.Enabled() {
		chatModel, err := aiCfg.NewChatModel(ctx)
		if err != nil {
			return err
		}
		client, err = completion.NewClient(ctx, chatModel, completion.Options{
			SystemPrompt: completion.DefaultPromptTemplate().BuildSystemPrompt(),
			Timeout:      aiCfg.Timeout,
			HistoryLimit: aiCfg.HistoryLimit,
		})
		if err != nil {
			return err
		}
	} else {
		log.Println("[WARN] 远程模型未配置，将只返回兜底话术")
	}

	svc := completion.NewService(client, fallback)
	var history []chat.Message
	for _, prompt := range inputs {
		if strings.TrimSpace(prompt) == "" {
			continue
		}
		start := time.Now()
		result := svc.Reply(ctx, prompt, history)
		history = append(history,
			chat.Message{Sender: chat.SenderUser, Content: prompt},
			chat.Message{Sender: chat.SenderAssistant, Content: result.Text, Source: result.Source},
		)
		fmt.Fprintf(out, "> %s\n[%s %s]\n%s\n", prompt, result.Source, time.Since(start).Round(time.Millisecond), result.Text)
	}
	return nil
}
