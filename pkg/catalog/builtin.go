package catalog

import "github.com/morezero/condo-orchestrator/pkg/fabric"

// builtin is the fixed condominium catalog. Declaration order is the routing
// tie-break order, so the more specific domains come first and support last.
var builtin = []Descriptor{
	{
		Type:        "acesso",
		Description: "Controle de acesso: liberação e bloqueio de entradas",
		Keywords:    []string{"acesso", "portaria", "entrada", "catraca", "liberação", "liberacao"},
		Intents:     []string{"liberar", "autorizar", "bloquear", "entrar"},
		Priority:    fabric.PriorityHigh,
		Version:     "1.4.0",
	},
	{
		Type:        "visitante",
		Description: "Cadastro e autorização de visitantes",
		Keywords:    []string{"visitante", "visita", "convidado"},
		Intents:     []string{"cadastrar", "autorizar", "agendar"},
		Priority:    fabric.PriorityNormal,
		Version:     "1.2.0",
	},
	{
		Type:        "encomenda",
		Description: "Recebimento e retirada de encomendas",
		Keywords:    []string{"encomenda", "pacote", "correspondência", "correspondencia", "entrega"},
		Intents:     []string{"receber", "retirar", "avisar"},
		Priority:    fabric.PriorityNormal,
		Version:     "1.1.0",
	},
	{
		Type:        "financeiro",
		Description: "Situação financeira e prestação de contas",
		Keywords:    []string{"financeiro", "saldo", "balancete", "prestação de contas", "prestacao de contas"},
		Intents:     []string{"consultar", "pagar", "conciliar"},
		Priority:    fabric.PriorityHigh,
		Version:     "2.0.1",
	},
	{
		Type:        "boleto",
		Description: "Emissão e segunda via de boletos",
		Keywords:    []string{"boleto", "segunda via", "cobrança", "cobranca", "taxa condominial"},
		Intents:     []string{"emitir", "pagar", "reemitir"},
		Priority:    fabric.PriorityHigh,
		Version:     "1.6.0",
	},
	{
		Type:        "inadimplencia",
		Description: "Acompanhamento de inadimplência e acordos",
		Keywords:    []string{"inadimplência", "inadimplencia", "atraso", "dívida", "divida", "acordo"},
		Intents:     []string{"negociar", "parcelar", "notificar"},
		Priority:    fabric.PriorityHigh,
		Version:     "1.3.0",
	},
	{
		Type:        "reserva",
		Description: "Reserva de espaços e churrasqueiras",
		Keywords:    []string{"reserva", "salão de festas", "salao de festas", "churrasqueira", "agenda"},
		Intents:     []string{"reservar", "cancelar", "agendar"},
		Priority:    fabric.PriorityNormal,
		Version:     "1.5.0",
	},
	{
		Type:        "assembleia",
		Description: "Convocação e acompanhamento de assembleias",
		Keywords:    []string{"assembleia", "convocação", "convocacao", "pauta", "votação", "votacao"},
		Intents:     []string{"convocar", "votar", "deliberar"},
		Priority:    fabric.PriorityHigh,
		Version:     "1.2.2",
	},
	{
		Type:        "comunicado",
		Description: "Comunicados e avisos aos condôminos",
		Keywords:    []string{"comunicado", "aviso", "circular", "mural"},
		Intents:     []string{"publicar", "divulgar", "avisar"},
		Priority:    fabric.PriorityNormal,
		Version:     "1.0.3",
	},
	{
		Type:        "manutencao",
		Description: "Ordens de manutenção predial",
		Keywords:    []string{"manutenção", "manutencao", "reparo", "conserto", "vazamento"},
		Intents:     []string{"consertar", "reparar", "abrir chamado"},
		Priority:    fabric.PriorityHigh,
		Version:     "1.7.0",
	},
	{
		Type:        "ocorrencia",
		Description: "Registro de ocorrências e reclamações",
		Keywords:    []string{"ocorrência", "ocorrencia", "reclamação", "reclamacao", "barulho"},
		Intents:     []string{"registrar", "reclamar", "denunciar"},
		Priority:    fabric.PriorityNormal,
		Version:     "1.4.1",
	},
	{
		Type:        "obra",
		Description: "Autorização e acompanhamento de obras",
		Keywords:    []string{"obra", "reforma", "construção", "construcao"},
		Intents:     []string{"autorizar", "reformar", "vistoriar"},
		Priority:    fabric.PriorityNormal,
		Version:     "1.1.2",
	},
	{
		Type:        "funcionario",
		Description: "Gestão de funcionários do condomínio",
		Keywords:    []string{"funcionário", "funcionario", "zelador", "escala", "folha"},
		Intents:     []string{"contratar", "escalar", "demitir"},
		Priority:    fabric.PriorityNormal,
		Version:     "1.0.5",
	},
	{
		Type:        "fornecedor",
		Description: "Cadastro e cotação de fornecedores",
		Keywords:    []string{"fornecedor", "cotação", "cotacao", "orçamento", "orcamento"},
		Intents:     []string{"cotar", "contratar", "avaliar"},
		Priority:    fabric.PriorityNormal,
		Version:     "1.2.1",
	},
	{
		Type:        "contrato",
		Description: "Contratos e renovações",
		Keywords:    []string{"contrato", "renovação", "renovacao", "aditivo"},
		Intents:     []string{"renovar", "rescindir", "assinar"},
		Priority:    fabric.PriorityNormal,
		Version:     "1.0.2",
	},
	{
		Type:        "seguro",
		Description: "Apólices e sinistros do condomínio",
		Keywords:    []string{"seguro", "apólice", "apolice", "sinistro"},
		Intents:     []string{"acionar", "renovar", "cotar"},
		Priority:    fabric.PriorityNormal,
		Version:     "1.0.1",
	},
	{
		Type:        "juridico",
		Description: "Questões jurídicas e notificações legais",
		Keywords:    []string{"jurídico", "juridico", "advogado", "processo", "notificação extrajudicial"},
		Intents:     []string{"notificar", "processar", "consultar"},
		Priority:    fabric.PriorityHigh,
		Version:     "1.1.0",
	},
	{
		Type:        "documento",
		Description: "Documentos e regimento interno",
		Keywords:    []string{"documento", "regimento", "convenção", "convencao", "regulamento"},
		Intents:     []string{"consultar", "emitir", "arquivar"},
		Priority:    fabric.PriorityLow,
		Version:     "1.3.2",
	},
	{
		Type:        "ata",
		Description: "Atas de reunião e registro de deliberações",
		Keywords:    []string{"ata", "deliberação", "deliberacao", "registro de reunião"},
		Intents:     []string{"lavrar", "registrar", "consultar"},
		Priority:    fabric.PriorityLow,
		Version:     "1.0.4",
	},
	{
		Type:        "enquete",
		Description: "Enquetes e consultas aos moradores",
		Keywords:    []string{"enquete", "pesquisa", "opinião", "opiniao"},
		Intents:     []string{"votar", "opinar", "criar enquete"},
		Priority:    fabric.PriorityLow,
		Version:     "1.1.1",
	},
	{
		Type:        "mudanca",
		Description: "Agendamento de mudanças",
		Keywords:    []string{"mudança", "mudanca", "carreto", "elevador de serviço"},
		Intents:     []string{"agendar mudança", "agendar mudanca", "mudar"},
		Priority:    fabric.PriorityNormal,
		Version:     "1.0.6",
	},
	{
		Type:        "pet",
		Description: "Cadastro e regras para animais de estimação",
		Keywords:    []string{"pet", "animal", "cachorro", "gato"},
		Intents:     []string{"cadastrar pet", "passear", "reclamar de animal"},
		Priority:    fabric.PriorityLow,
		Version:     "1.0.2",
	},
	{
		Type:        "garagem",
		Description: "Vagas de garagem e estacionamento",
		Keywords:    []string{"garagem", "vaga", "estacionamento", "veículo", "veiculo"},
		Intents:     []string{"estacionar", "alugar vaga", "cadastrar veículo"},
		Priority:    fabric.PriorityNormal,
		Version:     "1.2.3",
	},
	{
		Type:        "area_comum",
		Description: "Uso das áreas comuns",
		Keywords:    []string{"área comum", "area comum", "piscina", "academia", "playground"},
		Intents:     []string{"usar", "liberar área", "liberar area"},
		Priority:    fabric.PriorityNormal,
		Version:     "1.1.4",
	},
	{
		Type:        "limpeza",
		Description: "Serviços de limpeza e conservação",
		Keywords:    []string{"limpeza", "faxina", "conservação", "conservacao", "lixo"},
		Intents:     []string{"limpar", "recolher", "agendar limpeza"},
		Priority:    fabric.PriorityNormal,
		Version:     "1.0.8",
	},
	{
		Type:        "seguranca",
		Description: "Segurança patrimonial e rondas",
		Keywords:    []string{"segurança", "seguranca", "ronda", "vigilância", "vigilancia", "alarme"},
		Intents:     []string{"vigiar", "acionar alarme", "reportar"},
		Priority:    fabric.PriorityCritical,
		Version:     "1.5.1",
	},
	{
		Type:        "camera",
		Description: "Câmeras e gravações de CFTV",
		Keywords:    []string{"câmera", "camera", "cftv", "gravação", "gravacao", "imagem"},
		Intents:     []string{"gravar", "revisar imagem", "solicitar imagem"},
		Priority:    fabric.PriorityHigh,
		Version:     "1.2.0",
	},
	{
		Type:        "interfone",
		Description: "Interfonia e ramais",
		Keywords:    []string{"interfone", "ramal", "porteiro eletrônico", "porteiro eletronico"},
		Intents:     []string{"interfonar", "consertar interfone"},
		Priority:    fabric.PriorityNormal,
		Version:     "1.0.3",
	},
	{
		Type:        "agua",
		Description: "Consumo e contas de água",
		Keywords:    []string{"água", "agua", "hidrômetro", "hidrometro", "consumo de água"},
		Intents:     []string{"medir", "consultar consumo"},
		Priority:    fabric.PriorityNormal,
		Version:     "1.1.0",
	},
	{
		Type:        "energia",
		Description: "Energia elétrica das áreas comuns",
		Keywords:    []string{"energia", "luz", "elétrica", "eletrica", "queda de energia"},
		Intents:     []string{"religar", "consultar conta de luz"},
		Priority:    fabric.PriorityHigh,
		Version:     "1.1.3",
	},
	{
		Type:        "gas",
		Description: "Gás encanado e abastecimento",
		Keywords:    []string{"gás", "gas", "botijão", "botijao", "vazamento de gás"},
		Intents:     []string{"abastecer", "reportar vazamento"},
		Priority:    fabric.PriorityCritical,
		Version:     "1.0.2",
	},
	{
		Type:        "elevador",
		Description: "Manutenção e chamados de elevadores",
		Keywords:    []string{"elevador", "preso no elevador", "pane"},
		Intents:     []string{"chamar técnico", "chamar tecnico", "socorrer"},
		Priority:    fabric.PriorityCritical,
		Version:     "1.3.1",
	},
	{
		Type:        "jardinagem",
		Description: "Jardins e paisagismo",
		Keywords:    []string{"jardim", "jardinagem", "poda", "paisagismo"},
		Intents:     []string{"podar", "plantar", "agendar poda"},
		Priority:    fabric.PriorityLow,
		Version:     "1.0.1",
	},
	{
		Type:        "achados_perdidos",
		Description: "Achados e perdidos",
		Keywords:    []string{"achados", "perdidos", "perdi", "achei", "objeto perdido"},
		Intents:     []string{"procurar", "devolver", "reportar perda"},
		Priority:    fabric.PriorityLow,
		Version:     "1.0.0",
	},
	{
		Type:        "portaria",
		Description: "Rotinas da portaria e recepção",
		Keywords:    []string{"porteiro", "recepção", "recepcao", "guarita"},
		Intents:     []string{"chamar porteiro", "avisar portaria"},
		Priority:    fabric.PriorityNormal,
		Version:     "1.1.5",
	},
	{
		Type:        "support",
		Description: "Atendimento geral e dúvidas dos condôminos",
		Keywords:    []string{"ajuda", "dúvida", "duvida", "atendimento", "suporte"},
		Intents:     []string{"ajudar", "perguntar", "falar com atendente"},
		Priority:    fabric.PriorityNormal,
		Version:     "2.1.0",
	},
}
