package syncing

import "github.com/vfg2006/metrics-sync-api/internal/domain"

// PlanFetch converte o conjunto de lacunas em uma requisição de busca: o
// intervalo contíguo mais justo [Since, Until] que cobre todos os dias,
// mais a lista ordenada de dias originalmente desejados.
//
// Conectores que aceitam intervalos usam [Since, Until] em uma única
// chamada; os demais iteram sobre Days. Em ambos os casos o orquestrador
// descarta depois as linhas de dias que não estavam no conjunto original.
func PlanFetch(gaps DateSet) domain.FetchRequest {
	days := gaps.Sorted()
	if len(days) == 0 {
		return domain.FetchRequest{}
	}

	return domain.FetchRequest{
		Since: days[0],
		Until: days[len(days)-1],
		Days:  days,
	}
}
