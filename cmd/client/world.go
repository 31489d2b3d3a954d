package main

import (
	"github.com/annel0/taskverse/internal/game"
	"github.com/annel0/taskverse/internal/vec"
	"github.com/annel0/taskverse/internal/world"
	"github.com/annel0/taskverse/internal/world/entity"
)

// populateDemoWorld задаёт зоны и NPC, которые без бэкенда иначе некому прислать.
// Дом игрока в центре мира, чёрная дыра и арена босса на расстоянии от него.
func populateDemoWorld(sim *game.Simulation, cfg game.Config) {
	center := vec.New(cfg.Space.Size/2, cfg.Space.Size/2)
	at := func(dx, dy float64) vec.Vec2 {
		return cfg.Space.WrapIntoBounds(center.Add(vec.New(dx, dy)))
	}

	sim.SetZones(world.Zones{
		{ID: "home-" + cfg.PlayerID, Name: "Home", Center: at(0, game.SpawnOffset), Color: "#3b82f6", OwnerID: cfg.PlayerID, Type: world.ZoneHome},
		{ID: "nebula", Name: "Nebula", Center: at(-2500, 1500), Color: "#a855f7", Type: world.ZoneNeutral, Radius: 1200},
		{ID: "void", Name: "Void", Center: at(3000, 0), Type: world.ZoneBlackHole, Radius: 900},
	})

	sim.AddNPC("merchant-1", entity.NPCMerchant, at(800, -400))
	sim.AddNPC("creature-1", entity.NPCCreature, at(-1500, 1500))
	sim.AddNPC("creature-2", entity.NPCCreature, at(-2200, 1100))

	sim.SpawnBoss("boss-1", at(0, -2500))
}
