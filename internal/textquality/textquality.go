// Package textquality holds the pure text-scoring functions shared by the
// text extractor (rotation retry, hybrid arbitration) and the quality
// profiler (per-page readability and tiering): the 0-100 readability score
// and the 0-1 word-garbage score, plus the small stoplist and dictionary
// they lean on. Kept standalone so neither stage depends on the other.
package textquality

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/lexseg/lexseg/internal/pipeline"
)

// stopwords is a small high-frequency Portuguese function-word list used by
// garbage signal 4 (fraction of words NOT in the stoplist).
var stopwords = map[string]bool{
	"a": true, "o": true, "e": true, "de": true, "do": true, "da": true,
	"em": true, "um": true, "uma": true, "que": true, "para": true, "com": true,
	"não": true, "os": true, "as": true, "se": true, "no": true, "na": true,
	"por": true, "mais": true, "como": true, "mas": true, "foi": true,
	"ao": true, "ele": true, "das": true, "dos": true, "tem": true, "seu": true,
	"sua": true, "ou": true, "ser": true, "quando": true, "muito": true, "já": true,
	"eu": true, "também": true, "só": true, "pelo": true, "pela": true, "até": true,
	"isso": true, "ela": true, "entre": true, "depois": true, "sem": true, "mesmo": true,
	"aos": true, "seus": true, "quem": true, "nas": true, "me": true, "esse": true,
	"eles": true, "você": true, "essa": true, "num": true, "nem": true, "suas": true,
	"meu": true, "às": true, "minha": true, "numa": true, "pelos": true, "pelas": true,
	"processo": true, "autos": true, "réu": true, "autor": true, "art": true,
}

// dictionary is a ~1500-word Portuguese frequency word set used by garbage
// signal 7 (dictionary miss rate) for words of length >= 4: general
// high-frequency vocabulary (function words, common verbs in their usual
// conjugations, everyday nouns/adjectives/adverbs) plus the legal-domain
// terms a case PDF is saturated with. General coverage matters as much as
// the legal terms, since most of a petition's prose is ordinary Portuguese,
// not jargon.
var dictionary = buildDictionary()

func buildDictionary() map[string]bool {
	words := strings.Fields(`
	processo autor réu requerente requerido sentença decisão acórdão petição
	inicial citação intimação audiência prazo recurso apelação embargos
	execução fiscal tributo certidão dívida ativa vara comarca tribunal
	justiça federal estadual trabalho fazenda pública ministério advocacia
	geral defensoria procuradoria despacho ofício mandado segurança liminar
	tutela urgência antecipação cautelar agravo instrumento contrarrazões
	impugnação contestação réplica manifestação alegação final sentença
	procedente improcedente parcial extinção mérito preliminar nulidade
	competência jurisdição litisconsórcio assistência terceiro interessado
	valor causa custas honorários sucumbência condenação indenização dano
	moral material prova testemunhal documental pericial laudo perito
	vistos considerando fundamento disposição código civil penal processual
	constituição federal artigo parágrafo inciso alínea lei decreto portaria
	resolução instrução normativa súmula jurisprudência precedente repetitivo
	publicação diário eletrônico certifico nesta data intimo notifico
	advogado advogada procurador promotor juiz juíza desembargador magistrado
	escrivão oficial perito testemunha curador inventariante síndico tutor
	herdeiro legatário cônjuge companheiro filho filha menor incapaz absoluto
	relativo presunção inversão onerosidade contraditório ampla defesa devido
	processo legal razoabilidade proporcionalidade boa fé abuso direito
	obrigação contrato locação compra venda doação permuta comodato mútuo
	fiança garantia hipoteca penhor alienação fiduciária usucapião posse
	propriedade domínio servidão condomínio edifício unidade autônoma
	salário remuneração verba rescisória aviso prévio férias décimo terceiro
	fundo garantia tempo serviço seguro desemprego benefício previdenciário
	aposentadoria pensão auxílio doença acidente trabalho insalubridade
	periculosidade jornada hora extra intervalo repouso semanal remunerado
	demissão justa causa rescisão contrato trabalho vínculo empregatício
	empregador empregado patrão funcionário servidor concurso público cargo
	efetivo comissionado temporário estágio probatório exoneração
	casamento divórcio separação guarda alimentos pensão alimentícia adoção
	paternidade maternidade filiação socioafetiva reconhecimento união
	estável partilha bens regime comunhão separação total parcial
	testamento sucessão legítima inventário arrolamento partilha herança
	quinhão colação sonegados renúncia aceitação espólio
	`)
	words = append(words, strings.Fields(`
	casa carro livro mesa porta janela rua cidade estado país mundo tempo
	vida morte amor ódio família amigo amiga pessoa gente homem mulher
	criança jovem velho idoso irmão irmã pai mãe filho filha avô avó tio tia
	primo prima sobrinho sobrinha neto neta vizinho vizinha colega patrão
	chefe diretor gerente cliente fornecedor vendedor comprador dinheiro
	conta banco cartão crédito débito salário renda imposto preço custo
	gasto despesa economia negócio empresa indústria comércio serviço
	produto mercado loja mercado feira supermercado padaria farmácia hospital
	clínica médico enfermeiro paciente doença saúde remédio tratamento
	cirurgia exame consulta vacina dieta exercício corpo saúde mente
	cabeça rosto olho nariz boca orelha mão braço perna pé dedo coração
	pulmão estômago fígado sangue pele osso músculo
	escola universidade faculdade professor aluno turma aula matéria prova
	exame nota diploma formatura curso disciplina biblioteca livro caderno
	lápis caneta papel quadro mapa globo computador internet telefone
	celular mensagem email carta correio pacote entrega transporte viagem
	avião trem ônibus navio barco bicicleta caminhão estrada rodovia ponte
	túnel aeroporto estação porto
	manhã tarde noite dia semana mês ano século hora minuto segundo
	ontem hoje amanhã sempre nunca agora antes depois durante enquanto
	cedo tarde rápido lento devagar
	verão inverno outono primavera chuva sol vento nuvem céu estrela lua
	terra água fogo ar natureza floresta montanha rio mar praia lago
	campo fazenda plantação colheita semente fruto flor árvore folha raiz
	animal cachorro gato pássaro peixe cavalo vaca porco galinha inseto
	comida bebida água café leite pão carne peixe arroz feijão fruta
	legume verdura sal açúcar óleo manteiga queijo ovo sopa salada doce
	restaurante cozinha prato copo garfo faca colher mesa cadeira sofá
	cama travesseiro lençol cobertor armário estante geladeira fogão
	quarto sala cozinha banheiro garagem jardim quintal telhado parede
	piso chão teto escada elevador
	trabalho emprego profissão carreira função tarefa projeto reunião
	relatório documento arquivo pasta computador sistema programa aplicativo
	senha usuário rede internet site página vídeo foto imagem música filme
	jogo esporte futebol basquete vôlei natação corrida ginástica academia
	time equipe jogador técnico campeonato torneio medalha vitória derrota
	empate resultado placar
	governo presidente ministro senador deputado prefeito vereador eleição
	voto partido política economia inflação desemprego crescimento
	desenvolvimento investimento exportação importação
	roupa camisa calça sapato meia casaco vestido chapéu bolsa cinto
	relógio joia anel colar pulseira óculos
	cor vermelho azul verde amarelo branco preto cinza rosa laranja marrom
	violeta
	número primeiro segundo terceiro quarto quinto sexto sétimo oitavo
	nono décimo cem mil milhão
	grande pequeno alto baixo largo estreito pesado leve forte fraco
	rápido lento novo velho jovem antigo moderno bonito feio limpo sujo
	quente frio seco molhado doce amargo salgado ácido macio duro liso
	áspero claro escuro cheio vazio aberto fechado certo errado fácil
	difícil simples complexo importante necessário suficiente possível
	impossível verdadeiro falso real ideal útil inútil comum raro
	bom ótimo péssimo ruim melhor pior maior menor
	falar dizer contar explicar perguntar responder pedir pensar saber
	conhecer entender aprender ensinar estudar ler escrever ouvir ver
	olhar sentir tocar cheirar provar comer beber dormir acordar levantar
	sentar andar correr caminhar viajar chegar partir voltar entrar sair
	subir descer abrir fechar ligar desligar começar terminar continuar
	parar esperar procurar encontrar perder ganhar comprar vender pagar
	receber dar tomar trazer levar enviar receber guardar colocar tirar
	usar fazer criar construir destruir quebrar arrumar limpar lavar
	cozinhar trabalhar descansar brincar jogar cantar dançar rir chorar
	sorrir gritar sussurrar acreditar duvidar esquecer lembrar imaginar
	sonhar desejar precisar querer poder dever ter haver ser estar ficar
	virar tornar parecer mostrar esconder proteger ajudar salvar cuidar
	amar gostar odiar preferir escolher decidir resolver permitir proibir
	obrigar forçar convencer concordar discordar discutir conversar
	comunicar informar avisar confirmar negar afirmar declarar prometer
	`)...)
	words = append(words, strings.Fields(`
	ainda também apenas somente realmente certamente provavelmente talvez
	possivelmente normalmente geralmente frequentemente raramente jamais
	definitivamente absolutamente completamente totalmente parcialmente
	especialmente principalmente basicamente simplesmente claramente
	obviamente evidentemente naturalmente finalmente imediatamente
	atualmente anteriormente posteriormente recentemente brevemente
	rapidamente lentamente cuidadosamente facilmente dificilmente
	felizmente infelizmente aparentemente supostamente
	segunda terça quarta quinta sexta sábado domingo
	janeiro fevereiro março abril maio junho julho agosto setembro
	outubro novembro dezembro
	norte sul leste oeste centro região área zona distrito bairro vila
	povoado município estado capital interior litoral fronteira território
	continente oceano planeta universo sistema ambiente clima temperatura
	história geografia cultura sociedade comunidade tradição costume
	religião igreja templo cerimônia festa celebração feriado aniversário
	casamento batizado funeral velório cemitério
	arte música pintura escultura teatro cinema literatura poesia romance
	conto crônica jornal revista notícia reportagem entrevista artigo
	coluna editorial anúncio propaganda publicidade marca logotipo
	tecnologia ciência pesquisa experimento laboratório universidade
	descoberta invenção máquina equipamento ferramenta instrumento aparelho
	dispositivo
	segurança proteção defesa ataque perigo risco ameaça violência crime
	polícia delegacia investigação prisão suspeito vítima testemunha
	acusado culpado inocente pena multa indenização reparação
	`)...)
	words = append(words, strings.Fields(`
	isso essa esse essas esses isto aquilo aquele aquela aqueles aquelas
	este esta estes estas qual quais quanto quanto quantos quantas quando
	onde como muito pouco mais menos também ainda depois antes sempre
	nunca apenas mesmo outro outra outros outras cada todo toda todos
	todas alguém ninguém nada tudo algo algum alguma alguns algumas
	qualquer quaisquer tanto tanta tantos tantas quem nosso nossa nossos
	nossas seu sua seus suas dele dela deles delas comigo contigo consigo
	conosco convosco porque porquê quê entre sobre sob após perante
	mediante durante conforme segundo salvo exceto menos além aquém
	dentro fora acima abaixo adiante atrás através junto perto longe
	hoje amanhã ontem agora logo breve sempre nunca talvez certo errado
	`)...)
	words = append(words, strings.Fields(`
	estrada caminho trilha passagem cruzamento calçada praça parque
	monumento igreja catedral mosteiro convento palácio castelo muralha
	biblioteca museu galeria auditório teatro estádio ginásio piscina
	quadra pista arena coliseu
	engenheiro arquiteto cientista pesquisador escritor jornalista
	fotógrafo pintor escultor músico cantor ator atriz dançarino bailarina
	cozinheiro padeiro açougueiro alfaiate sapateiro marceneiro pedreiro
	eletricista encanador mecânico motorista piloto capitão marinheiro
	soldado bombeiro policial enfermeira médica dentista veterinário
	farmacêutico nutricionista psicólogo terapeuta fisioterapeuta
	treinador árbitro jogador torcedor espectador visitante turista
	hóspede anfitrião vizinhança comunidade associação cooperativa
	sindicato conselho comissão assembleia congresso convenção simpósio
	seminário palestra workshop oficina treinamento capacitação
	qualificação certificação habilitação licença autorização permissão
	aprovação rejeição reclamação sugestão proposta recomendação crítica
	elogio agradecimento pedido convite despedida saudação cumprimento
	`)...)
	words = append(words, strings.Fields(`
	dias anos meses semanas horas minutos amigos amigas pessoas homens
	mulheres crianças filhos filhas irmãos pais avós vizinhos colegas
	carros livros casas ruas cidades países tempos vidas famílias
	pequena pequenas pequenos grandes altas altos baixas baixos feliz
	felizes tristes simples calmo calma calmos calmas contente contentes
	morava morou mora moram moravam chegava chegou chegam chegaram
	ficava ficou ficam ficaram ficar voltava voltou voltam voltaram
	gostava gostou gostam gostaram sabia sabe sabem souberam tinha tinham
	tiveram havia estava estavam esteve estiveram dizia disse dizem
	disseram parecia parece parecem pareceram precisava precisou
	precisam queria quis queriam quiseram podia pôde podiam puderam
	fazia fez faziam fizeram dava deu davam deram ia foi iam foram vinha
	veio vinham vieram olhava olhou olham olharam pensava pensou pensam
	pensaram sentia sentiu sentem sentiram lembrava lembrou lembram
	lembraram esperava esperou esperam esperaram
	`)...)
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[strings.ToLower(w)] = true
	}
	for w := range stopwords {
		if len([]rune(w)) >= 4 {
			m[w] = true
		}
	}
	return m
}

var garbageOperatorsRe = regexp.MustCompile(`[~*§¬¨£¢¡¿]`)

// pjeFooterPatterns are the five canonical PJe footer line patterns.
var pjeFooterPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)processo judicial eletrônico`),
	regexp.MustCompile(`(?i)num\.\s*\d+\s*-\s*p[aá]g`),
	regexp.MustCompile(`(?i)assinado eletronicamente`),
	regexp.MustCompile(`(?i)para conferir o original, acesse`),
	regexp.MustCompile(`(?i)código verificador`),
}

// StripPJeFooterBeforeScoring removes the PJe footer from text before
// garbage scoring, but only when the footer is found in the last 40% of
// the text, never on short fragments, where a false match would nuke the
// only content available.
func StripPJeFooterBeforeScoring(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) < 5 {
		return text
	}
	tailStart := int(float64(len(lines)) * 0.6)
	kept := lines[:tailStart]
	for i := tailStart; i < len(lines); i++ {
		if matchesAny(lines[i], pjeFooterPatterns) {
			continue
		}
		kept = append(kept, lines[i])
	}
	return strings.Join(kept, "\n")
}

func matchesAny(line string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}

// ReadabilityScore computes a 0-100 score from four equally-weighted
// heuristics: chars-per-page density, average word length (3-8 healthy),
// printable-Latin ratio, and average line length (30-120 healthy).
func ReadabilityScore(text string) float64 {
	text = StripPJeFooterBeforeScoring(text)
	if strings.TrimSpace(text) == "" {
		return 0
	}

	words := strings.Fields(text)
	lines := strings.Split(text, "\n")

	density := scoreDensity(len(text))
	avgWordLen := scoreAvgWordLength(words)
	latinRatio := scorePrintableLatinRatio(text)
	avgLineLen := scoreAvgLineLength(lines)

	return (density + avgWordLen + latinRatio + avgLineLen) / 4.0
}

func scoreDensity(charCount int) float64 {
	switch {
	case charCount >= 1500:
		return 100
	case charCount <= 0:
		return 0
	default:
		return float64(charCount) / 1500.0 * 100.0
	}
}

func scoreAvgWordLength(words []string) float64 {
	if len(words) == 0 {
		return 0
	}
	total := 0
	for _, w := range words {
		total += len([]rune(w))
	}
	avg := float64(total) / float64(len(words))
	if avg >= 3 && avg <= 8 {
		return 100
	}
	if avg < 3 {
		return avg / 3.0 * 100.0
	}
	// avg > 8: decay
	excess := avg - 8
	score := 100.0 - excess*15.0
	if score < 0 {
		return 0
	}
	return score
}

func scorePrintableLatinRatio(text string) float64 {
	var printable, total int
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if isPrintableLatin(r) {
			printable++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(printable) / float64(total) * 100.0
}

func isPrintableLatin(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsPunct(r) {
		return true
	}
	return false
}

func scoreAvgLineLength(lines []string) float64 {
	var nonEmpty []string
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			nonEmpty = append(nonEmpty, l)
		}
	}
	if len(nonEmpty) == 0 {
		return 0
	}
	total := 0
	for _, l := range nonEmpty {
		total += len([]rune(l))
	}
	avg := float64(total) / float64(len(nonEmpty))
	if avg >= 30 && avg <= 120 {
		return 100
	}
	if avg < 30 {
		return avg / 30.0 * 100.0
	}
	excess := avg - 120
	score := 100.0 - excess*0.8
	if score < 0 {
		return 0
	}
	return score
}

// Tier buckets a readability score using the configured descending
// thresholds (default [80,60,40,20]).
func Tier(readability float64, thresholds []float64) pipeline.QualityTier {
	if len(thresholds) != 4 {
		thresholds = []float64{80, 60, 40, 20}
	}
	switch {
	case readability >= thresholds[0]:
		return pipeline.TierA
	case readability >= thresholds[1]:
		return pipeline.TierB
	case readability >= thresholds[2]:
		return pipeline.TierC
	case readability >= thresholds[3]:
		return pipeline.TierD
	default:
		return pipeline.TierF
	}
}

var (
	consonantRunRe  = regexp.MustCompile(`(?i)[bcdfghjklmnpqrstvwxyz]{4,}`)
	midWordCaseRe   = regexp.MustCompile(`[a-z][A-Z]`)
	corruptJoinRe   = regexp.MustCompile(`[a-zA-Z0-9][~\-=][a-zA-Z0-9]`)
	digitInLetterRe = regexp.MustCompile(`[a-zA-Z]\d[a-zA-Z]`)
	mixedCaseRunRe  = regexp.MustCompile(`[a-z][A-Z][a-z]`)
)

// WordGarbageScore computes the seven-signal 0-1 OCR garbage score. The
// PJe footer is stripped first via StripPJeFooterBeforeScoring.
func WordGarbageScore(text string) float64 {
	text = StripPJeFooterBeforeScoring(text)
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}

	total := float64(len(words))
	points := 0.0

	points += signalShortWords(words, total)
	points += signalLowAlnumWords(words, total)
	points += signalGarbageOperators(text)
	points += signalStoplistMiss(words, total)
	points += signalConsonantRuns(words, total)
	points += signalEncodingCorruption(words, total)
	points += signalDictionaryMiss(words)

	// Six signals score up to 2 points and the operator signal up to 1;
	// dividing by 14 and capping normalizes to [0,1].
	const maxPoints = 14.0
	score := points / maxPoints
	if score > 1 {
		score = 1
	}
	return score
}

func signalShortWords(words []string, total float64) float64 {
	short := 0
	for _, w := range words {
		if len([]rune(w)) <= 2 {
			short++
		}
	}
	frac := float64(short) / total
	switch {
	case frac > 0.45:
		return 2
	case frac > 0.30:
		return 1
	default:
		return 0
	}
}

func signalLowAlnumWords(words []string, total float64) float64 {
	count := 0
	for _, w := range words {
		if len([]rune(w)) <= 1 {
			continue
		}
		alnum := 0
		for _, r := range w {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				alnum++
			}
		}
		if float64(alnum)/float64(len([]rune(w))) < 0.40 {
			count++
		}
	}
	frac := float64(count) / total
	switch {
	case frac > 0.15:
		return 2
	case frac > 0.08:
		return 1
	default:
		return 0
	}
}

func signalGarbageOperators(text string) float64 {
	hits := garbageOperatorsRe.FindAllStringIndex(text, -1)
	if len(text) == 0 {
		return 0
	}
	density := float64(len(hits)) / float64(len([]rune(text)))
	if density > 0.02 {
		return 1
	}
	return 0
}

func signalStoplistMiss(words []string, total float64) float64 {
	inStoplist := 0
	for _, w := range words {
		if stopwords[strings.ToLower(strings.Trim(w, ".,;:!?()\"'"))] {
			inStoplist++
		}
	}
	frac := float64(inStoplist) / total
	switch {
	case frac < 0.05:
		return 2
	case frac < 0.10:
		return 1
	default:
		return 0
	}
}

func signalConsonantRuns(words []string, total float64) float64 {
	count := 0
	for _, w := range words {
		if consonantRunRe.MatchString(w) || midWordCaseRe.MatchString(w) {
			count++
		}
	}
	frac := float64(count) / total
	switch {
	case frac > 0.15:
		return 2
	case frac > 0.08:
		return 1
	default:
		return 0
	}
}

func signalEncodingCorruption(words []string, total float64) float64 {
	count := 0
	for _, w := range words {
		if corruptJoinRe.MatchString(w) || digitInLetterRe.MatchString(w) || mixedCaseRunRe.MatchString(w) {
			count++
		}
	}
	frac := float64(count) / total
	switch {
	case frac > 0.10:
		return 2
	case frac > 0.05:
		return 1
	default:
		return 0
	}
}

func signalDictionaryMiss(words []string) float64 {
	var longWords []string
	for _, w := range words {
		clean := strings.ToLower(strings.Trim(w, ".,;:!?()\"'"))
		if len([]rune(clean)) >= 4 {
			longWords = append(longWords, clean)
		}
	}
	if len(longWords) < 10 {
		return 0
	}
	miss := 0
	for _, w := range longWords {
		if !dictionary[w] {
			miss++
		}
	}
	frac := float64(miss) / float64(len(longWords))
	switch {
	case frac > 0.70:
		return 2
	case frac > 0.55:
		return 1
	default:
		return 0
	}
}
